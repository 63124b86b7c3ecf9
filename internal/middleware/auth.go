package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/carbonforge/onboarding-api/internal/constants"
	apierrors "github.com/carbonforge/onboarding-api/internal/errors"
)

// resolveSession copies the session identity, if any, into the request
// context so handlers read it from one place.
func resolveSession(c *gin.Context) bool {
	userID := sessions.Default(c).Get(constants.ContextKeyUserID)
	if userID == nil {
		return false
	}
	c.Set(constants.ContextKeyUserID, userID)
	return true
}

// RequireAuth rejects requests without a session identity.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !resolveSession(c) {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth resolves the session identity when one exists but lets
// anonymous requests through. The onboarding submission uses this to branch
// between "new visitor" and "already-authenticated user adding a role".
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		resolveSession(c)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context.
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
