package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateVerificationToken generates a random email verification token in
// the format XXXXXXXX-XXXXXXXX-XXXXXXXX.
func GenerateVerificationToken() (string, error) {
	bytes := make([]byte, 12)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	hex := hex.EncodeToString(bytes)
	return fmt.Sprintf("%s-%s-%s",
		hex[0:8],
		hex[8:16],
		hex[16:24],
	), nil
}
