package model

import "time"

const (
	ActionCreate   = "create"
	ActionRead     = "read"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionLogin    = "login"
	ActionLogout   = "logout"
	ActionRegister = "register"
)

const (
	EntityUser          = "user"
	EntityReferee       = "referee"
	EntityGame          = "game"
	EntityMonitoredUser = "monitored_user"
)

// ActivityLog is append-only. UserID may be empty for unauthenticated
// system actions.
type ActivityLog struct {
	UserID     string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Action     string    `bson:"action" json:"action"`
	EntityType string    `bson:"entity_type" json:"entity_type"`
	EntityID   string    `bson:"entity_id,omitempty" json:"entity_id,omitempty"`
	Details    string    `bson:"details,omitempty" json:"details,omitempty"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}
