package model

import "time"

type Session struct {
	SessionID    string    `bson:"session_id" json:"session_id"`
	UserID       string    `bson:"user_id" json:"user_id"`
	RefreshToken string    `bson:"refresh_token" json:"-"` // opaque lookup key, never echoed
	AccessToken  string    `bson:"access_token,omitempty" json:"-"`
	DeviceInfo   string    `bson:"device_info,omitempty" json:"device_info,omitempty"`
	IPAddress    string    `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent    string    `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt    time.Time `bson:"expires_at" json:"expires_at"`
	LastUsedAt   time.Time `bson:"last_used_at" json:"last_used_at"`
	IsActive     bool      `bson:"is_active" json:"is_active"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
