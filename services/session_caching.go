package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"main/model"

	"github.com/redis/go-redis/v9"
)

// SessionCache is an optional Redis read-through cache in front of the
// session store, keyed by refresh token (the session's lookup key on the
// hot refresh path). All callers must tolerate a nil cache.
type SessionCache struct {
	client *redis.Client
}

type userSessionsEntry struct {
	Sessions  []*model.Session `json:"sessions"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// GlobalSessionCache is set at startup when SESSION_CACHE_URL is
// configured; nil disables caching entirely.
var GlobalSessionCache *SessionCache

func NewSessionCache(redisURL string) (*SessionCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &SessionCache{client: client}, nil
}

func sessionKey(refreshToken string) string {
	return "session:" + refreshToken
}

func userSessionsKey(userID string) string {
	return "user_sessions:" + userID
}

// SetSession caches a session with a TTL matching its expiry.
func (sc *SessionCache) SetSession(ctx context.Context, session *model.Session) error {
	if session == nil || session.RefreshToken == "" {
		return fmt.Errorf("cannot cache session without refresh token")
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session has already expired")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := sc.client.Set(ctx, sessionKey(session.RefreshToken), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}
	return nil
}

// GetSession returns the cached session for a refresh token, or nil on a
// miss.
func (sc *SessionCache) GetSession(ctx context.Context, refreshToken string) (*model.Session, error) {
	data, err := sc.client.Get(ctx, sessionKey(refreshToken)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	// The token is excluded from serialization; restore it from the key.
	session.RefreshToken = refreshToken

	if session.Expired(time.Now()) {
		sc.DeleteSession(ctx, refreshToken)
		return nil, nil
	}

	return &session, nil
}

func (sc *SessionCache) DeleteSession(ctx context.Context, refreshToken string) error {
	if err := sc.client.Del(ctx, sessionKey(refreshToken)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from cache: %w", err)
	}
	return nil
}

// CacheUserSessions stores a user's active-session list for a short time.
func (sc *SessionCache) CacheUserSessions(ctx context.Context, userID string, sessions []*model.Session) error {
	entry := userSessionsEntry{
		Sessions:  sessions,
		UpdatedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	if err := sc.client.Set(ctx, userSessionsKey(userID), data, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to cache user sessions: %w", err)
	}
	return nil
}

// GetUserSessions returns the cached list and a staleness flag (entries
// older than 30 seconds are considered stale).
func (sc *SessionCache) GetUserSessions(ctx context.Context, userID string) ([]*model.Session, bool, error) {
	data, err := sc.client.Get(ctx, userSessionsKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get user sessions from cache: %w", err)
	}

	var entry userSessionsEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal sessions: %w", err)
	}

	return entry.Sessions, time.Since(entry.UpdatedAt) > 30*time.Second, nil
}

// InvalidateUser drops the cached session list after any mutation of a
// user's sessions.
func (sc *SessionCache) InvalidateUser(ctx context.Context, userID string) error {
	if err := sc.client.Del(ctx, userSessionsKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate user sessions: %w", err)
	}
	return nil
}

// CleanupExpiredSessions scans session keys and drops entries whose
// payload has expired. Redis TTLs handle most of this; the sweep covers
// sessions whose expiry moved.
func (sc *SessionCache) CleanupExpiredSessions(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := sc.client.Scan(ctx, cursor, "session:*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}

		for _, key := range keys {
			data, err := sc.client.Get(ctx, key).Bytes()
			if err != nil {
				continue
			}
			var session model.Session
			if err := json.Unmarshal(data, &session); err != nil {
				continue
			}
			if session.Expired(time.Now()) {
				sc.client.Del(ctx, key)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// StartCleanupTask runs the expired-entry sweep on a fixed interval.
func (sc *SessionCache) StartCleanupTask(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if err := sc.CleanupExpiredSessions(context.Background()); err != nil {
				log.Printf("Error cleaning up cached sessions: %v", err)
			}
		}
	}()
}

func (sc *SessionCache) IsConnected() bool {
	if sc == nil || sc.client == nil {
		return false
	}
	return sc.client.Ping(context.Background()).Err() == nil
}

func (sc *SessionCache) Close() error {
	return sc.client.Close()
}
