package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func SetupIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	usersCollection := db.Collection("users")
	sessionsCollection := db.Collection("sessions")
	attemptsCollection := db.Collection("login_attempts")
	activityCollection := db.Collection("activity_logs")
	monitorsCollection := db.Collection("monitored_users")

	userIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("user_id_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetName("username_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("email_unique").
				SetUnique(true),
		},
	}

	sessionIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().
				SetName("session_id_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "refresh_token", Value: 1}},
			Options: options.Index().
				SetName("refresh_token_unique").
				SetUnique(true),
		},
		// Active-session listing sorted by recency
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "is_active", Value: 1},
				{Key: "last_used_at", Value: -1},
			},
			Options: options.Index().
				SetName("user_active_sessions"),
		},
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("session_expiry"),
		},
	}

	attemptIndexes := []mongo.IndexModel{
		// Lockout window counting
		{
			Keys: bson.D{
				{Key: "username", Value: 1},
				{Key: "ip_address", Value: 1},
				{Key: "successful", Value: 1},
				{Key: "attempted_at", Value: -1},
			},
			Options: options.Index().
				SetName("lockout_window"),
		},
	}

	activityIndexes := []mongo.IndexModel{
		// Scanner lookback query
		{
			Keys: bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().
				SetName("activity_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().
				SetName("user_activity_date"),
		},
	}

	monitorIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "monitor_id", Value: 1}},
			Options: options.Index().
				SetName("monitor_id_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "is_active", Value: 1},
			},
			Options: options.Index().
				SetName("user_active_monitor"),
		},
		{
			Keys: bson.D{{Key: "detected_at", Value: -1}},
			Options: options.Index().
				SetName("monitor_detection_date"),
		},
	}

	if _, err := usersCollection.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create users indexes: %w", err)
	}
	if _, err := sessionsCollection.Indexes().CreateMany(ctx, sessionIndexes); err != nil {
		return fmt.Errorf("failed to create sessions indexes: %w", err)
	}
	if _, err := attemptsCollection.Indexes().CreateMany(ctx, attemptIndexes); err != nil {
		return fmt.Errorf("failed to create login_attempts indexes: %w", err)
	}
	if _, err := activityCollection.Indexes().CreateMany(ctx, activityIndexes); err != nil {
		return fmt.Errorf("failed to create activity_logs indexes: %w", err)
	}
	if _, err := monitorsCollection.Indexes().CreateMany(ctx, monitorIndexes); err != nil {
		return fmt.Errorf("failed to create monitored_users indexes: %w", err)
	}

	log.Println("Successfully created all indexes")
	return nil
}
