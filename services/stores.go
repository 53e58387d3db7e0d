package services

import (
	"context"
	"time"

	"main/model"
)

// Store handles are interface-typed and constructor-injected so every
// service is testable against in-memory fakes. The Mongo implementations
// live in the repository package. Lookups return (nil, nil) when the row
// does not exist.

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	FindByID(ctx context.Context, userID string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	SetTwoFactorSetup(ctx context.Context, userID, secret string, backupCodes []string) error
	SetTwoFactorEnabled(ctx context.Context, userID string, enabled bool) error
	ClearTwoFactor(ctx context.Context, userID string) error
	UpdateBackupCodes(ctx context.Context, userID string, codes []string) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, session *model.Session) error
	FindByRefreshToken(ctx context.Context, refreshToken string) (*model.Session, error)
	FindByID(ctx context.Context, sessionID string) (*model.Session, error)
	// ActiveSessions returns the user's active sessions ordered by
	// last_used_at descending.
	ActiveSessions(ctx context.Context, userID string) ([]*model.Session, error)
	UpdateSession(ctx context.Context, session *model.Session) error
	Deactivate(ctx context.Context, sessionID string) (bool, error)
	DeactivateAll(ctx context.Context, userID string) (int64, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type AttemptStore interface {
	Record(ctx context.Context, attempt *model.LoginAttempt) error
	CountFailedSince(ctx context.Context, username, ip string, since time.Time) (int, error)
	LastFailed(ctx context.Context, username, ip string) (*model.LoginAttempt, error)
	ClearFailed(ctx context.Context, username, ip string) error
}

type ActivityStore interface {
	Append(ctx context.Context, entry *model.ActivityLog) error
	// EntriesSince returns entries with timestamp >= since, ordered by
	// timestamp ascending.
	EntriesSince(ctx context.Context, since time.Time) ([]*model.ActivityLog, error)
}

type MonitorStore interface {
	Insert(ctx context.Context, mu *model.MonitoredUser) error
	ActiveForUser(ctx context.Context, userID string) (*model.MonitoredUser, error)
	FindByID(ctx context.Context, monitorID string) (*model.MonitoredUser, error)
	Update(ctx context.Context, mu *model.MonitoredUser) error
	// List returns monitored users ordered by detected_at descending.
	List(ctx context.Context, activeOnly bool) ([]*model.MonitoredUser, error)
}
