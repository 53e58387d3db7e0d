package model

import "time"

const (
	RoleRegular = "Regular"
	RoleAdmin   = "Admin"
)

type User struct {
	UserID           string    `bson:"user_id" json:"user_id"`
	Username         string    `bson:"username" json:"username" validate:"required,min=4,max=100"`
	Email            string    `bson:"email" json:"email" validate:"required,email"`
	Password         string    `bson:"password" json:"-"` // bcrypt hash, never serialized
	Role             string    `bson:"role" json:"role"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	LastLogin        time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
	TwoFactorSecret  string    `bson:"two_factor_secret,omitempty" json:"-"`
	TwoFactorEnabled bool      `bson:"two_factor_enabled" json:"two_factor_enabled"`
	BackupCodes      []string  `bson:"backup_codes,omitempty" json:"-"` // single use, removed when consumed
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Sanitized returns the fields safe for API responses.
func (u *User) Sanitized() map[string]interface{} {
	return map[string]interface{}{
		"id":                 u.UserID,
		"username":           u.Username,
		"email":              u.Email,
		"role":               u.Role,
		"created_at":         u.CreatedAt,
		"last_login":         u.LastLogin,
		"two_factor_enabled": u.TwoFactorEnabled,
	}
}
