package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"main/config"
	"main/model"
	"main/services"

	"github.com/gin-gonic/gin"
)

// Minimal in-memory stores, enough to drive the auth service under the
// HTTP handlers.

type memUserStore struct{ users map[string]*model.User }

func (s *memUserStore) CreateUser(_ context.Context, u *model.User) error {
	s.users[u.UserID] = u
	return nil
}

func (s *memUserStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) FindByID(_ context.Context, id string) (*model.User, error) {
	return s.users[id], nil
}

func (s *memUserStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	if u := s.users[id]; u != nil {
		u.LastLogin = at
	}
	return nil
}

func (s *memUserStore) SetTwoFactorSetup(_ context.Context, id, secret string, codes []string) error {
	u := s.users[id]
	u.TwoFactorSecret = secret
	u.BackupCodes = codes
	return nil
}

func (s *memUserStore) SetTwoFactorEnabled(_ context.Context, id string, enabled bool) error {
	s.users[id].TwoFactorEnabled = enabled
	return nil
}

func (s *memUserStore) ClearTwoFactor(_ context.Context, id string) error {
	u := s.users[id]
	u.TwoFactorSecret = ""
	u.TwoFactorEnabled = false
	u.BackupCodes = nil
	return nil
}

func (s *memUserStore) UpdateBackupCodes(_ context.Context, id string, codes []string) error {
	s.users[id].BackupCodes = codes
	return nil
}

type memSessionStore struct{ sessions map[string]*model.Session }

func (s *memSessionStore) CreateSession(_ context.Context, sess *model.Session) error {
	s.sessions[sess.SessionID] = sess
	return nil
}

func (s *memSessionStore) FindByRefreshToken(_ context.Context, tok string) (*model.Session, error) {
	for _, sess := range s.sessions {
		if sess.RefreshToken == tok {
			return sess, nil
		}
	}
	return nil, nil
}

func (s *memSessionStore) FindByID(_ context.Context, id string) (*model.Session, error) {
	return s.sessions[id], nil
}

func (s *memSessionStore) ActiveSessions(_ context.Context, userID string) ([]*model.Session, error) {
	var out []*model.Session
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.IsActive {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *memSessionStore) UpdateSession(_ context.Context, sess *model.Session) error {
	s.sessions[sess.SessionID] = sess
	return nil
}

func (s *memSessionStore) Deactivate(_ context.Context, id string) (bool, error) {
	sess := s.sessions[id]
	if sess == nil || !sess.IsActive {
		return false, nil
	}
	sess.IsActive = false
	return true, nil
}

func (s *memSessionStore) DeactivateAll(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.IsActive {
			sess.IsActive = false
			n++
		}
	}
	return n, nil
}

func (s *memSessionStore) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (s *memSessionStore) DeleteInactiveBefore(_ context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type memAttemptStore struct{ attempts []*model.LoginAttempt }

func (s *memAttemptStore) Record(_ context.Context, a *model.LoginAttempt) error {
	s.attempts = append(s.attempts, a)
	return nil
}

func (s *memAttemptStore) CountFailedSince(_ context.Context, username, ip string, since time.Time) (int, error) {
	n := 0
	for _, a := range s.attempts {
		if a.Username == username && a.IPAddress == ip && !a.Successful && !a.AttemptedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *memAttemptStore) LastFailed(_ context.Context, username, ip string) (*model.LoginAttempt, error) {
	for i := len(s.attempts) - 1; i >= 0; i-- {
		a := s.attempts[i]
		if a.Username == username && a.IPAddress == ip && !a.Successful {
			return a, nil
		}
	}
	return nil, nil
}

func (s *memAttemptStore) ClearFailed(_ context.Context, username, ip string) error {
	var kept []*model.LoginAttempt
	for _, a := range s.attempts {
		if !(a.Username == username && a.IPAddress == ip && !a.Successful) {
			kept = append(kept, a)
		}
	}
	s.attempts = kept
	return nil
}

type memActivityStore struct{}

func (s *memActivityStore) Append(_ context.Context, _ *model.ActivityLog) error { return nil }
func (s *memActivityStore) EntriesSince(_ context.Context, _ time.Time) ([]*model.ActivityLog, error) {
	return nil, nil
}

func newTestAuthService(t *testing.T) *services.AuthService {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:          "test-secret-key",
		Issuer:             "refregistry",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    7 * 24 * time.Hour,
		BcryptCost:         4,
		MaxLoginAttempts:   5,
		LockoutWindow:      15 * time.Minute,
		MaxSessionsPerUser: 5,
	}

	users := &memUserStore{users: make(map[string]*model.User)}
	sessions := &memSessionStore{sessions: make(map[string]*model.Session)}
	lockout := services.NewLockoutGuard(&memAttemptStore{}, cfg.MaxLoginAttempts, cfg.LockoutWindow)
	tokens := services.NewTokenService(cfg)
	logger := services.NewActivityLogger(&memActivityStore{})

	return services.NewAuthService(cfg, users, sessions, lockout, tokens, logger)
}

func newLoginRouter(auth *services.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/auth/login", func(c *gin.Context) {
		LoginHandler(c, auth)
	})
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginHandlerInvalidBody(t *testing.T) {
	router := newLoginRouter(newTestAuthService(t))

	w := postJSON(t, router, "/api/auth/login", gin.H{"username": "alice"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestLoginHandlerInvalidCredentials(t *testing.T) {
	auth := newTestAuthService(t)
	router := newLoginRouter(auth)

	w := postJSON(t, router, "/api/auth/login", gin.H{"username": "nobody", "password": "whatever1!"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLoginHandlerSuccess(t *testing.T) {
	auth := newTestAuthService(t)

	if _, err := auth.Register(context.Background(), "alice", "Str0ng!pass", "alice@example.com", "", services.SessionInfo{}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	router := newLoginRouter(auth)
	w := postJSON(t, router, "/api/auth/login", gin.H{"username": "alice", "password": "Str0ng!pass"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Tokens struct {
				AccessToken  string `json:"access_token"`
				RefreshToken string `json:"refresh_token"`
			} `json:"tokens"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Data.Tokens.AccessToken == "" || resp.Data.Tokens.RefreshToken == "" {
		t.Fatalf("missing tokens in response: %s", w.Body.String())
	}
}

func TestLoginHandlerLockout(t *testing.T) {
	auth := newTestAuthService(t)

	if _, err := auth.Register(context.Background(), "alice", "Str0ng!pass", "alice@example.com", "", services.SessionInfo{}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	router := newLoginRouter(auth)
	for i := 0; i < 5; i++ {
		postJSON(t, router, "/api/auth/login", gin.H{"username": "alice", "password": "wrong-pass1!"})
	}

	w := postJSON(t, router, "/api/auth/login", gin.H{"username": "alice", "password": "Str0ng!pass"})
	if w.Code != http.StatusLocked {
		t.Fatalf("status = %d, want 423", w.Code)
	}
}
