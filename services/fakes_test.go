package services

import (
	"context"
	"sort"
	"time"

	"main/model"
)

// In-memory store implementations used across the service tests.

type fakeUserStore struct {
	users map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (s *fakeUserStore) CreateUser(_ context.Context, user *model.User) error {
	cp := *user
	s.users[user.UserID] = &cp
	return nil
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) FindByID(_ context.Context, userID string) (*model.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	if u, ok := s.users[userID]; ok {
		u.LastLogin = at
	}
	return nil
}

func (s *fakeUserStore) SetTwoFactorSetup(_ context.Context, userID, secret string, backupCodes []string) error {
	u := s.users[userID]
	u.TwoFactorSecret = secret
	u.TwoFactorEnabled = false
	u.BackupCodes = backupCodes
	return nil
}

func (s *fakeUserStore) SetTwoFactorEnabled(_ context.Context, userID string, enabled bool) error {
	s.users[userID].TwoFactorEnabled = enabled
	return nil
}

func (s *fakeUserStore) ClearTwoFactor(_ context.Context, userID string) error {
	u := s.users[userID]
	u.TwoFactorSecret = ""
	u.TwoFactorEnabled = false
	u.BackupCodes = nil
	return nil
}

func (s *fakeUserStore) UpdateBackupCodes(_ context.Context, userID string, codes []string) error {
	s.users[userID].BackupCodes = codes
	return nil
}

type fakeSessionStore struct {
	sessions map[string]*model.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*model.Session)}
}

func (s *fakeSessionStore) CreateSession(_ context.Context, session *model.Session) error {
	cp := *session
	s.sessions[session.SessionID] = &cp
	return nil
}

func (s *fakeSessionStore) FindByRefreshToken(_ context.Context, refreshToken string) (*model.Session, error) {
	for _, sess := range s.sessions {
		if sess.RefreshToken == refreshToken {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeSessionStore) FindByID(_ context.Context, sessionID string) (*model.Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeSessionStore) ActiveSessions(_ context.Context, userID string) ([]*model.Session, error) {
	var out []*model.Session
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.IsActive {
			cp := *sess
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUsedAt.After(out[j].LastUsedAt)
	})
	return out, nil
}

func (s *fakeSessionStore) UpdateSession(_ context.Context, session *model.Session) error {
	cp := *session
	s.sessions[session.SessionID] = &cp
	return nil
}

func (s *fakeSessionStore) Deactivate(_ context.Context, sessionID string) (bool, error) {
	sess, ok := s.sessions[sessionID]
	if !ok || !sess.IsActive {
		return false, nil
	}
	sess.IsActive = false
	return true, nil
}

func (s *fakeSessionStore) DeactivateAll(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.IsActive {
			sess.IsActive = false
			n++
		}
	}
	return n, nil
}

func (s *fakeSessionStore) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, sess := range s.sessions {
		if sess.IsActive && sess.Expired(now) {
			sess.IsActive = false
			n++
		}
	}
	return n, nil
}

func (s *fakeSessionStore) DeleteInactiveBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, sess := range s.sessions {
		if !sess.IsActive && sess.ExpiresAt.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

type fakeAttemptStore struct {
	attempts []*model.LoginAttempt
}

func (s *fakeAttemptStore) Record(_ context.Context, attempt *model.LoginAttempt) error {
	cp := *attempt
	s.attempts = append(s.attempts, &cp)
	return nil
}

func (s *fakeAttemptStore) CountFailedSince(_ context.Context, username, ip string, since time.Time) (int, error) {
	count := 0
	for _, a := range s.attempts {
		if a.Username == username && a.IPAddress == ip && !a.Successful && !a.AttemptedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *fakeAttemptStore) LastFailed(_ context.Context, username, ip string) (*model.LoginAttempt, error) {
	var last *model.LoginAttempt
	for _, a := range s.attempts {
		if a.Username == username && a.IPAddress == ip && !a.Successful {
			if last == nil || a.AttemptedAt.After(last.AttemptedAt) {
				last = a
			}
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (s *fakeAttemptStore) ClearFailed(_ context.Context, username, ip string) error {
	var kept []*model.LoginAttempt
	for _, a := range s.attempts {
		if a.Username == username && a.IPAddress == ip && !a.Successful {
			continue
		}
		kept = append(kept, a)
	}
	s.attempts = kept
	return nil
}

type fakeActivityStore struct {
	entries []*model.ActivityLog
}

func (s *fakeActivityStore) Append(_ context.Context, entry *model.ActivityLog) error {
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *fakeActivityStore) EntriesSince(_ context.Context, since time.Time) ([]*model.ActivityLog, error) {
	var out []*model.ActivityLog
	for _, e := range s.entries {
		if !e.Timestamp.Before(since) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

type fakeMonitorStore struct {
	rows map[string]*model.MonitoredUser
}

func newFakeMonitorStore() *fakeMonitorStore {
	return &fakeMonitorStore{rows: make(map[string]*model.MonitoredUser)}
}

func (s *fakeMonitorStore) Insert(_ context.Context, mu *model.MonitoredUser) error {
	cp := *mu
	s.rows[mu.MonitorID] = &cp
	return nil
}

func (s *fakeMonitorStore) ActiveForUser(_ context.Context, userID string) (*model.MonitoredUser, error) {
	for _, mu := range s.rows {
		if mu.UserID == userID && mu.IsActive {
			cp := *mu
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeMonitorStore) FindByID(_ context.Context, monitorID string) (*model.MonitoredUser, error) {
	mu, ok := s.rows[monitorID]
	if !ok {
		return nil, nil
	}
	cp := *mu
	return &cp, nil
}

func (s *fakeMonitorStore) Update(_ context.Context, mu *model.MonitoredUser) error {
	cp := *mu
	s.rows[mu.MonitorID] = &cp
	return nil
}

func (s *fakeMonitorStore) List(_ context.Context, activeOnly bool) ([]*model.MonitoredUser, error) {
	var out []*model.MonitoredUser
	for _, mu := range s.rows {
		if activeOnly && !mu.IsActive {
			continue
		}
		cp := *mu
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	return out, nil
}
