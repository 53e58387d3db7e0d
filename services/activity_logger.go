package services

import (
	"context"
	"log"
	"time"

	"main/model"
	"main/utils"
)

// ActivityLogger is the shared append-only write path for significant
// user actions. A failed write never fails the surrounding operation.
type ActivityLogger struct {
	store ActivityStore
	now   func() time.Time
}

func NewActivityLogger(store ActivityStore) *ActivityLogger {
	return &ActivityLogger{store: store, now: time.Now}
}

func (l *ActivityLogger) LogAction(ctx context.Context, userID, action, entityType, entityID, details string) {
	entry := &model.ActivityLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Timestamp:  l.now(),
	}

	if err := l.store.Append(ctx, entry); err != nil {
		utils.TrackError("activity", "append_failed")
		log.Printf("Warning: failed to record activity log entry: %v", err)
	}
}

// LogUserAction records an action whose subject is the acting user.
func (l *ActivityLogger) LogUserAction(ctx context.Context, userID, action, details string) {
	l.LogAction(ctx, userID, action, model.EntityUser, userID, details)
}
