package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/carbonforge/onboarding-api/internal/constants"
	"github.com/carbonforge/onboarding-api/internal/models"
	"github.com/carbonforge/onboarding-api/internal/repository"
	"github.com/carbonforge/onboarding-api/internal/utils"
	"github.com/carbonforge/onboarding-api/pkg/logger"
)

var (
	ErrEmailTaken            = errors.New("an account with this email already exists")
	ErrInvalidEmail          = errors.New("email address is not valid")
	ErrPasswordTooShort      = errors.New("password too short")
	ErrTooManySignupAttempts = errors.New("too many signup attempts, please try again later")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidToken          = errors.New("verification token is invalid or already used")
	ErrFailedToHashPassword  = errors.New("failed to hash password")
	ErrFailedToCreateUser    = errors.New("failed to create user")
)

// VerificationSender delivers the "verify your email" signal. Delivery is an
// external concern; implementations must not block signup on failure.
type VerificationSender interface {
	SendVerification(email, token string)
}

// LogVerificationSender is the default sender. It only records the signal;
// actual delivery is wired up out-of-band.
type LogVerificationSender struct{}

func (LogVerificationSender) SendVerification(email, token string) {
	logger.Get().Info().
		Str("email", email).
		Str("token", token).
		Msg("verification email requested")
}

// signupLimiter tracks recent signup attempts per email. Enough to classify
// obvious hammering; distributed limiting belongs at the edge.
type signupLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

func newSignupLimiter() *signupLimiter {
	return &signupLimiter{attempts: make(map[string][]time.Time)}
}

func (l *signupLimiter) allow(email string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-constants.SignupAttemptWindow)

	recent := l.attempts[email][:0]
	for _, t := range l.attempts[email] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= constants.MaxSignupAttempts {
		l.attempts[email] = recent
		return false
	}

	l.attempts[email] = append(recent, now)
	return true
}

// AuthService handles account provisioning and authentication.
type AuthService struct {
	userRepo repository.UserRepository
	sender   VerificationSender
	limiter  *signupLimiter
}

// NewAuthService creates a new AuthService. A nil sender falls back to the
// logging sender.
func NewAuthService(userRepo repository.UserRepository, sender VerificationSender) *AuthService {
	if sender == nil {
		sender = LogVerificationSender{}
	}
	return &AuthService{
		userRepo: userRepo,
		sender:   sender,
		limiter:  newSignupLimiter(),
	}
}

// SignupInput represents the required information to create a new account.
type SignupInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Signup creates a new unverified account and fires the verification signal.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if !s.limiter.allow(email) {
		return nil, ErrTooManySignupAttempts
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	token, err := utils.GenerateVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	user := &models.User{
		Email:             email,
		PasswordHash:      string(hashedPassword),
		DisplayName:       strings.TrimSpace(input.DisplayName),
		VerificationToken: &token,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateUser, err)
	}

	// Fire-and-forget; the account exists regardless of delivery.
	s.sender.SendVerification(user.Email, token)

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// VerifyEmail marks the account holding the token as verified and consumes
// the token.
func (s *AuthService) VerifyEmail(token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByVerificationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user by token: %w", err)
	}

	user.EmailVerified = true
	user.VerificationToken = nil

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to mark user verified: %w", err)
	}

	return user, nil
}
