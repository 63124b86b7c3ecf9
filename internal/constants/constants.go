package constants

import "time"

// Session
const (
	SessionCookieName = "onboarding_session"
	ContextKeyUserID  = "user_id"
)

// Auth
const (
	MinPasswordLength = 8

	// Signup attempts allowed per email within SignupAttemptWindow.
	MaxSignupAttempts   = 5
	SignupAttemptWindow = time.Minute
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
