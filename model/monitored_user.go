package model

import "time"

// MonitoredUser rows are created by the anomaly scanner and closed, never
// deleted, by an admin resolve action. At most one active row per user.
type MonitoredUser struct {
	MonitorID    string    `bson:"monitor_id" json:"monitor_id"`
	UserID       string    `bson:"user_id" json:"user_id"`
	Reason       string    `bson:"reason" json:"reason"`
	DetectedAt   time.Time `bson:"detected_at" json:"detected_at"`
	ActionsCount int       `bson:"actions_count" json:"actions_count"`
	WindowSecs   int       `bson:"window_secs" json:"window_secs"`
	IsActive     bool      `bson:"is_active" json:"is_active"`
	ResolvedAt   time.Time `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	ResolvedBy   string    `bson:"resolved_by,omitempty" json:"resolved_by,omitempty"`
}
