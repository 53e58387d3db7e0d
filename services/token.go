package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"main/config"
	"main/model"
	"main/utils"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access-token payload. Binding the session ID into the
// token lets a session revocation invalidate every access token minted
// under it before the embedded expiry.
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret:    []byte(cfg.JWTSecret),
		issuer:    cfg.Issuer,
		accessTTL: cfg.AccessTokenTTL,
		now:       time.Now,
	}
}

func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *TokenService) GenerateAccessToken(user *model.User, sessionID string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:    user.UserID,
		Username:  user.Username,
		Role:      user.Role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		utils.TrackError("auth", "token_signing_failed")
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	utils.TokenUsage.WithLabelValues("access", "generated").Inc()
	return signed, nil
}

// VerifyAccessToken checks signature and expiry only. Callers that need
// the revocation guarantee must also confirm the embedded session is
// still active (AuthService.VerifyAccessToken does).
func (s *TokenService) VerifyAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.issuer))

	if err != nil || !token.Valid {
		utils.TokenUsage.WithLabelValues("access", "rejected").Inc()
		return nil, ErrInvalidOrExpiredToken
	}

	utils.TokenUsage.WithLabelValues("access", "verified").Inc()
	return claims, nil
}

// GenerateRefreshToken produces an opaque random token: 32 bytes from a
// CSPRNG, hex encoded. It is persisted as the session's lookup key and
// never interpreted.
func (s *TokenService) GenerateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		utils.TrackError("auth", "refresh_token_generation_failed")
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	utils.TokenUsage.WithLabelValues("refresh", "generated").Inc()
	return hex.EncodeToString(buf), nil
}
