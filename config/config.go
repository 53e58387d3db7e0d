package config

import (
	"log"
	"os"
	"time"

	"main/utils"
)

// Config carries every tunable of the auth and monitoring subsystem.
// Duration values arrive as literals ("15m", "7d") and are parsed exactly
// once here; the rest of the code only ever sees time.Duration.
type Config struct {
	JWTSecret string
	Issuer    string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	BcryptCost int

	MaxLoginAttempts int
	LockoutWindow    time.Duration

	MaxSessionsPerUser int

	ScanInterval       time.Duration
	DetectionWindow    time.Duration
	ScanLookback       time.Duration
	ActivityThreshold  int
	SessionSweepPeriod time.Duration
}

// Load reads the configuration from the environment. The JWT secret is
// the only hard requirement.
func Load() *Config {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	return &Config{
		JWTSecret: secret,
		Issuer:    utils.GetEnvAsString("TOKEN_ISSUER", "refregistry"),

		AccessTokenTTL:  utils.GetEnvAsExpiry("JWT_EXPIRES_IN", 15*time.Minute),
		RefreshTokenTTL: utils.GetEnvAsExpiry("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),

		BcryptCost: utils.GetEnvAsInt("BCRYPT_COST", 12),

		MaxLoginAttempts: utils.GetEnvAsInt("MAX_LOGIN_ATTEMPTS", 5),
		LockoutWindow:    utils.GetEnvAsExpiry("LOCKOUT_WINDOW", 15*time.Minute),

		MaxSessionsPerUser: utils.GetEnvAsInt("MAX_SESSIONS_PER_USER", 5),

		ScanInterval:       utils.GetEnvAsExpiry("MONITOR_SCAN_INTERVAL", 10*time.Second),
		DetectionWindow:    utils.GetEnvAsExpiry("MONITOR_DETECTION_WINDOW", 20*time.Second),
		ScanLookback:       utils.GetEnvAsExpiry("MONITOR_LOOKBACK", 60*time.Second),
		ActivityThreshold:  utils.GetEnvAsInt("MONITOR_ACTIVITY_THRESHOLD", 15),
		SessionSweepPeriod: utils.GetEnvAsExpiry("SESSION_SWEEP_PERIOD", 15*time.Minute),
	}
}
