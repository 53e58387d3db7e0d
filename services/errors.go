package services

import (
	"errors"
	"fmt"
	"time"
)

// Expected conditions are returned as sentinel errors and translated to
// API responses at the handler boundary; only genuinely unexpected store
// or crypto failures travel as wrapped errors.
var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidCode             = errors.New("invalid verification code")
	ErrInvalidOrExpiredToken   = errors.New("invalid or expired token")
	ErrNotFound                = errors.New("not found")
	ErrAccessDenied            = errors.New("access denied")
	ErrUserExists              = errors.New("username or email already exists")
	ErrTwoFactorNotSetUp       = errors.New("two-factor authentication not set up")
	ErrTwoFactorNotEnabled     = errors.New("two-factor authentication not enabled")
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication already enabled")
)

// AccountLockedError carries the time the lockout lifts.
type AccountLockedError struct {
	UnlockAt time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.UnlockAt.Format(time.RFC3339))
}
