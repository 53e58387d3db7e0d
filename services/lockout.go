package services

import (
	"context"
	"fmt"
	"time"

	"main/model"
	"main/utils"
)

// LockoutGuard decides whether a (username, origin) pair is locked out,
// purely from the attempt ledger. Lockout is deliberately scoped per
// origin: the same account from another address is unaffected.
type LockoutGuard struct {
	attempts    AttemptStore
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

func NewLockoutGuard(attempts AttemptStore, maxAttempts int, window time.Duration) *LockoutGuard {
	return &LockoutGuard{
		attempts:    attempts,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// IsLockedOut counts failed attempts inside the trailing window. When the
// threshold is met the unlock time is the last failure plus the window.
// Pure read, no side effects.
func (g *LockoutGuard) IsLockedOut(ctx context.Context, username, ip string) (bool, time.Time, error) {
	since := g.now().Add(-g.window)

	failed, err := g.attempts.CountFailedSince(ctx, username, ip, since)
	if err != nil {
		utils.TrackError("auth", "lockout_count_failed")
		return false, time.Time{}, fmt.Errorf("failed to count login attempts: %w", err)
	}

	if failed < g.maxAttempts {
		return false, time.Time{}, nil
	}

	last, err := g.attempts.LastFailed(ctx, username, ip)
	if err != nil {
		utils.TrackError("auth", "lockout_lookup_failed")
		return false, time.Time{}, fmt.Errorf("failed to look up last attempt: %w", err)
	}
	if last == nil {
		return false, time.Time{}, nil
	}

	return true, last.AttemptedAt.Add(g.window), nil
}

// RecordAttempt appends to the ledger. Every login call, success or
// failure, goes through here.
func (g *LockoutGuard) RecordAttempt(ctx context.Context, username, ip, userAgent string, successful bool, failureReason string) error {
	attempt := &model.LoginAttempt{
		Username:      username,
		IPAddress:     ip,
		UserAgent:     userAgent,
		Successful:    successful,
		FailureReason: failureReason,
		AttemptedAt:   g.now(),
	}

	if err := g.attempts.Record(ctx, attempt); err != nil {
		utils.TrackError("auth", "attempt_record_failed")
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

// ClearFailed resets the counter for a (username, origin) pair after a
// successful login.
func (g *LockoutGuard) ClearFailed(ctx context.Context, username, ip string) error {
	if err := g.attempts.ClearFailed(ctx, username, ip); err != nil {
		utils.TrackError("auth", "attempt_clear_failed")
		return fmt.Errorf("failed to clear login attempts: %w", err)
	}
	return nil
}
