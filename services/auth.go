package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"main/config"
	"main/model"
	"main/utils"

	"github.com/google/uuid"
)

// SessionInfo describes the client side of a login for the session row.
type SessionInfo struct {
	DeviceInfo string
	IPAddress  string
	UserAgent  string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

// LoginResult is the outcome of a login-shaped operation. Exactly one of
// the branches is populated: Success with tokens, RequiresTwoFactor with
// the pending user ID, LockoutTime, or a failure Message.
type LoginResult struct {
	Success           bool
	User              *model.User
	Tokens            *TokenPair
	Message           string
	LockoutTime       *time.Time
	RequiresTwoFactor bool
	UserID            string
}

// AuthService composes the lockout guard, credential check, two-factor
// branch, token service and session store into the login state machine.
type AuthService struct {
	users       UserStore
	sessions    SessionStore
	lockout     *LockoutGuard
	tokens      *TokenService
	activity    *ActivityLogger
	bcryptCost  int
	refreshTTL  time.Duration
	maxSessions int
	now         func() time.Time
}

func NewAuthService(
	cfg *config.Config,
	users UserStore,
	sessions SessionStore,
	lockout *LockoutGuard,
	tokens *TokenService,
	activity *ActivityLogger,
) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		lockout:     lockout,
		tokens:      tokens,
		activity:    activity,
		bcryptCost:  cfg.BcryptCost,
		refreshTTL:  cfg.RefreshTokenTTL,
		maxSessions: cfg.MaxSessionsPerUser,
		now:         time.Now,
	}
}

// Register creates a new user and logs them straight in.
func (s *AuthService) Register(ctx context.Context, username, password, email, role string, info SessionInfo) (*LoginResult, error) {
	existing, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		utils.TrackAuthAttempt("failure", "register")
		return &LoginResult{Success: false, Message: "Username or email already exists"}, nil
	}

	hashed, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	if role != model.RoleAdmin {
		role = model.RoleRegular
	}

	user := &model.User{
		UserID:    uuid.New().String(),
		Username:  username,
		Email:     email,
		Password:  hashed,
		Role:      role,
		CreatedAt: s.now(),
		LastLogin: s.now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.activity.LogUserAction(ctx, user.UserID, model.ActionRegister, fmt.Sprintf("User %s registered", username))

	tokens, err := s.issueTokens(ctx, user, info)
	if err != nil {
		return nil, err
	}

	utils.TrackAuthAttempt("success", "register")
	return &LoginResult{
		Success: true,
		User:    user,
		Tokens:  tokens,
		Message: "User registered successfully",
	}, nil
}

// Login runs the state machine: lockout gate, credential check,
// two-factor branch, then token issuance. The failure message for an
// unknown user and a wrong password is identical on purpose.
func (s *AuthService) Login(ctx context.Context, username, password string, info SessionInfo) (*LoginResult, error) {
	locked, unlockAt, err := s.lockout.IsLockedOut(ctx, username, info.IPAddress)
	if err != nil {
		return nil, err
	}
	if locked {
		utils.AccountLockouts.Inc()
		utils.TrackAuthAttempt("failure", "lockout")
		return &LoginResult{
			Success:     false,
			Message:     "Account temporarily locked due to too many failed attempts",
			LockoutTime: &unlockAt,
		}, nil
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		if err := s.lockout.RecordAttempt(ctx, username, info.IPAddress, info.UserAgent, false, "User not found"); err != nil {
			log.Printf("Warning: %v", err)
		}
		utils.TrackAuthAttempt("failure", "login")
		return &LoginResult{Success: false, Message: "Invalid credentials"}, nil
	}

	if !VerifyPassword(user.Password, password) {
		if err := s.lockout.RecordAttempt(ctx, username, info.IPAddress, info.UserAgent, false, "Invalid password"); err != nil {
			log.Printf("Warning: %v", err)
		}
		utils.TrackAuthAttempt("failure", "login")
		return &LoginResult{Success: false, Message: "Invalid credentials"}, nil
	}

	if user.TwoFactorEnabled {
		// Password stage cleared; tokens are withheld until the code
		// is verified through CompleteTwoFactorLogin.
		if err := s.lockout.RecordAttempt(ctx, username, info.IPAddress, info.UserAgent, true, "Password verified, awaiting 2FA"); err != nil {
			log.Printf("Warning: %v", err)
		}
		utils.TrackAuthAttempt("pending", "2fa")
		return &LoginResult{
			Success:           true,
			RequiresTwoFactor: true,
			UserID:            user.UserID,
			Message:           "Two-factor authentication required",
		}, nil
	}

	return s.finishLogin(ctx, user, info, "")
}

// CompleteTwoFactorLogin re-enters the state machine at token issuance
// after the two-factor service has validated the code.
func (s *AuthService) CompleteTwoFactorLogin(ctx context.Context, userID string, info SessionInfo) (*LoginResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return &LoginResult{Success: false, Message: "User not found"}, nil
	}

	return s.finishLogin(ctx, user, info, "2FA verified")
}

func (s *AuthService) finishLogin(ctx context.Context, user *model.User, info SessionInfo, attemptReason string) (*LoginResult, error) {
	if err := s.lockout.ClearFailed(ctx, user.Username, info.IPAddress); err != nil {
		log.Printf("Warning: %v", err)
	}
	if err := s.lockout.RecordAttempt(ctx, user.Username, info.IPAddress, info.UserAgent, true, attemptReason); err != nil {
		log.Printf("Warning: %v", err)
	}

	user.LastLogin = s.now()
	if err := s.users.UpdateLastLogin(ctx, user.UserID, user.LastLogin); err != nil {
		log.Printf("Warning: failed to update last login for %s: %v", user.UserID, err)
	}

	s.activity.LogUserAction(ctx, user.UserID, model.ActionLogin, fmt.Sprintf("User %s logged in", user.Username))

	tokens, err := s.issueTokens(ctx, user, info)
	if err != nil {
		return nil, err
	}

	utils.TrackAuthAttempt("success", "login")
	return &LoginResult{
		Success: true,
		User:    user,
		Tokens:  tokens,
		Message: "Login successful",
	}, nil
}

// issueTokens caps the user's active sessions, inserts the new session
// row keyed by a fresh refresh token, and signs an access token bound to
// the session ID.
func (s *AuthService) issueTokens(ctx context.Context, user *model.User, info SessionInfo) (*TokenPair, error) {
	if err := s.capSessions(ctx, user.UserID); err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &model.Session{
		SessionID:    uuid.New().String(),
		UserID:       user.UserID,
		RefreshToken: refreshToken,
		DeviceInfo:   info.DeviceInfo,
		IPAddress:    info.IPAddress,
		UserAgent:    info.UserAgent,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.refreshTTL),
		LastUsedAt:   now,
		IsActive:     true,
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	utils.ActiveSessions.Inc()

	accessToken, err := s.tokens.GenerateAccessToken(user, session.SessionID)
	if err != nil {
		return nil, err
	}

	session.AccessToken = accessToken
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		log.Printf("Warning: failed to cache access token on session %s: %v", session.SessionID, err)
	}

	if GlobalSessionCache != nil {
		if err := GlobalSessionCache.SetSession(ctx, session); err != nil {
			log.Printf("Warning: failed to cache session: %v", err)
		}
		if err := GlobalSessionCache.InvalidateUser(ctx, user.UserID); err != nil {
			log.Printf("Warning: failed to invalidate cached session list: %v", err)
		}
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.tokens.AccessTTL().String(),
	}, nil
}

// capSessions enforces the per-user bound before a new session is
// inserted: with max already active, the least-recently-used sessions
// are deactivated down to max-1.
func (s *AuthService) capSessions(ctx context.Context, userID string) error {
	active, err := s.sessions.ActiveSessions(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load active sessions: %w", err)
	}

	if len(active) < s.maxSessions {
		return nil
	}

	for _, sess := range active[s.maxSessions-1:] {
		sess.IsActive = false
		if err := s.sessions.UpdateSession(ctx, sess); err != nil {
			return fmt.Errorf("failed to evict session %s: %w", sess.SessionID, err)
		}
		if GlobalSessionCache != nil {
			GlobalSessionCache.DeleteSession(ctx, sess.RefreshToken)
		}
		utils.SessionEvictions.Inc()
		utils.ActiveSessions.Dec()
		log.Printf("Evicted least-recently-used session %s for user %s", sess.SessionID, userID)
	}

	return nil
}

// RefreshToken exchanges a refresh token for a fresh access token bound
// to the same session. The refresh token itself is not rotated.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string, info SessionInfo) (*TokenPair, error) {
	var session *model.Session
	if GlobalSessionCache != nil {
		cached, err := GlobalSessionCache.GetSession(ctx, refreshToken)
		if err != nil {
			log.Printf("Warning: session cache read failed: %v", err)
		}
		utils.TrackCacheOperation("session", cached != nil)
		session = cached
	}

	if session == nil {
		var err error
		session, err = s.sessions.FindByRefreshToken(ctx, refreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to look up session: %w", err)
		}
	}
	if session == nil || !session.IsActive || session.Expired(s.now()) {
		utils.TrackAuthAttempt("failure", "refresh")
		return nil, ErrInvalidOrExpiredToken
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		utils.TrackAuthAttempt("failure", "refresh")
		return nil, ErrInvalidOrExpiredToken
	}

	accessToken, err := s.tokens.GenerateAccessToken(user, session.SessionID)
	if err != nil {
		return nil, err
	}

	session.LastUsedAt = s.now()
	session.AccessToken = accessToken
	if info.IPAddress != "" {
		session.IPAddress = info.IPAddress
	}
	if info.UserAgent != "" {
		session.UserAgent = info.UserAgent
	}
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to touch session: %w", err)
	}

	if GlobalSessionCache != nil {
		if err := GlobalSessionCache.SetSession(ctx, session); err != nil {
			log.Printf("Warning: failed to cache session: %v", err)
		}
	}

	utils.TrackAuthAttempt("success", "refresh")
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    s.tokens.AccessTTL().String(),
	}, nil
}

// Logout deactivates the session behind a refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) bool {
	session, err := s.sessions.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		log.Printf("Error logging out: %v", err)
		return false
	}
	if session == nil {
		return false
	}

	session.IsActive = false
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		log.Printf("Error logging out: %v", err)
		return false
	}
	utils.ActiveSessions.Dec()

	if GlobalSessionCache != nil {
		GlobalSessionCache.DeleteSession(ctx, refreshToken)
		GlobalSessionCache.InvalidateUser(ctx, session.UserID)
	}

	s.activity.LogUserAction(ctx, session.UserID, model.ActionLogout, "User logged out")
	return true
}

// LogoutAllDevices deactivates every active session of a user.
func (s *AuthService) LogoutAllDevices(ctx context.Context, userID string) bool {
	if GlobalSessionCache != nil {
		// Drop the per-token cache entries before the rows go inactive.
		if active, err := s.sessions.ActiveSessions(ctx, userID); err == nil {
			for _, sess := range active {
				GlobalSessionCache.DeleteSession(ctx, sess.RefreshToken)
			}
		}
		GlobalSessionCache.InvalidateUser(ctx, userID)
	}

	count, err := s.sessions.DeactivateAll(ctx, userID)
	if err != nil {
		log.Printf("Error logging out all devices for %s: %v", userID, err)
		return false
	}
	utils.ActiveSessions.Sub(float64(count))

	s.activity.LogUserAction(ctx, userID, model.ActionLogout, "User logged out from all devices")
	return true
}

// GetUserSessions lists the user's active sessions, most recently used
// first.
func (s *AuthService) GetUserSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	if GlobalSessionCache != nil {
		cached, stale, err := GlobalSessionCache.GetUserSessions(ctx, userID)
		if err != nil {
			log.Printf("Warning: session list cache read failed: %v", err)
		}
		utils.TrackCacheOperation("user_sessions", cached != nil && !stale)
		if cached != nil && !stale {
			return cached, nil
		}
	}

	sessions, err := s.sessions.ActiveSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	if GlobalSessionCache != nil {
		if err := GlobalSessionCache.CacheUserSessions(ctx, userID, sessions); err != nil {
			log.Printf("Warning: failed to cache session list: %v", err)
		}
	}

	return sessions, nil
}

// RevokeSession deactivates one session, enforcing ownership.
func (s *AuthService) RevokeSession(ctx context.Context, sessionID, userID string) (bool, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		return false, ErrNotFound
	}
	if session.UserID != userID {
		return false, ErrAccessDenied
	}
	if !session.IsActive {
		return false, nil
	}

	ok, err := s.sessions.Deactivate(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to revoke session: %w", err)
	}
	if ok {
		if GlobalSessionCache != nil {
			GlobalSessionCache.DeleteSession(ctx, session.RefreshToken)
			GlobalSessionCache.InvalidateUser(ctx, userID)
		}
		utils.ActiveSessions.Dec()
	}
	return ok, nil
}

// VerifyAccessToken validates signature and expiry, then confirms the
// embedded session is still active so revocation takes effect
// immediately.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil || !session.IsActive || session.Expired(s.now()) {
		return nil, ErrInvalidOrExpiredToken
	}

	return claims, nil
}

// CleanupExpiredSessions deactivates sessions past their expiry and
// purges inactive rows older than 30 days. Called periodically from a
// maintenance ticker.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) {
	now := s.now()

	expired, err := s.sessions.DeactivateExpired(ctx, now)
	if err != nil {
		log.Printf("Error deactivating expired sessions: %v", err)
		return
	}
	if expired > 0 {
		utils.ActiveSessions.Sub(float64(expired))
	}

	deleted, err := s.sessions.DeleteInactiveBefore(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		log.Printf("Error deleting stale sessions: %v", err)
		return
	}

	log.Printf("Session cleanup: %d expired, %d stale rows removed", expired, deleted)
}
