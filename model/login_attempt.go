package model

import "time"

// LoginAttempt is keyed by username rather than user ID: attempts are
// recorded before the identity is resolved (or when it never resolves).
type LoginAttempt struct {
	Username      string    `bson:"username" json:"username"`
	IPAddress     string    `bson:"ip_address" json:"ip_address"`
	UserAgent     string    `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Successful    bool      `bson:"successful" json:"successful"`
	FailureReason string    `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	AttemptedAt   time.Time `bson:"attempted_at" json:"attempted_at"`
}
