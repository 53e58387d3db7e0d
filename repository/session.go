package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func GetSessionRepo(client *mongo.Client) *SessionRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("SESSIONS_COLLECTION")
	if collectionName == "" {
		collectionName = "sessions"
	}
	return &SessionRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

type SessionRepo struct {
	MongoCollection *mongo.Collection
}

func (r *SessionRepo) CreateSession(ctx context.Context, session *model.Session) error {
	timer := utils.TrackDBOperation("insert", "sessions")
	defer timer.ObserveDuration()

	if _, err := r.MongoCollection.InsertOne(ctx, session); err != nil {
		utils.TrackError("database", "session_creation_failed")
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepo) FindByRefreshToken(ctx context.Context, refreshToken string) (*model.Session, error) {
	timer := utils.TrackDBOperation("find", "sessions")
	defer timer.ObserveDuration()

	var session model.Session
	filter := bson.D{{Key: "refresh_token", Value: refreshToken}}

	err := r.MongoCollection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "session_lookup_error")
		return nil, err
	}

	return &session, nil
}

func (r *SessionRepo) FindByID(ctx context.Context, sessionID string) (*model.Session, error) {
	timer := utils.TrackDBOperation("find", "sessions")
	defer timer.ObserveDuration()

	var session model.Session
	filter := bson.D{{Key: "session_id", Value: sessionID}}

	err := r.MongoCollection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "session_lookup_error")
		return nil, err
	}

	return &session, nil
}

func (r *SessionRepo) ActiveSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	timer := utils.TrackDBOperation("find", "sessions")
	defer timer.ObserveDuration()

	filter := bson.M{"user_id": userID, "is_active": true}
	opts := options.Find().SetSort(bson.D{{Key: "last_used_at", Value: -1}})

	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.TrackError("database", "session_lookup_error")
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		utils.TrackError("database", "session_decode_error")
		return nil, err
	}

	return sessions, nil
}

func (r *SessionRepo) UpdateSession(ctx context.Context, session *model.Session) error {
	timer := utils.TrackDBOperation("update", "sessions")
	defer timer.ObserveDuration()

	filter := bson.M{"session_id": session.SessionID}
	result, err := r.MongoCollection.ReplaceOne(ctx, filter, session)
	if err != nil {
		utils.TrackError("database", "session_update_failed")
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.MatchedCount == 0 {
		utils.TrackError("database", "session_not_found")
		return fmt.Errorf("session not found")
	}
	return nil
}

func (r *SessionRepo) Deactivate(ctx context.Context, sessionID string) (bool, error) {
	timer := utils.TrackDBOperation("update", "sessions")
	defer timer.ObserveDuration()

	filter := bson.M{"session_id": sessionID, "is_active": true}
	update := bson.M{"$set": bson.M{"is_active": false}}

	result, err := r.MongoCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		utils.TrackError("database", "session_deactivation_failed")
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

func (r *SessionRepo) DeactivateAll(ctx context.Context, userID string) (int64, error) {
	timer := utils.TrackDBOperation("update", "sessions")
	defer timer.ObserveDuration()

	filter := bson.M{"user_id": userID, "is_active": true}
	update := bson.M{"$set": bson.M{"is_active": false}}

	result, err := r.MongoCollection.UpdateMany(ctx, filter, update)
	if err != nil {
		utils.TrackError("database", "session_deactivation_failed")
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *SessionRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	timer := utils.TrackDBOperation("update", "sessions")
	defer timer.ObserveDuration()

	filter := bson.M{"is_active": true, "expires_at": bson.M{"$lt": now}}
	update := bson.M{"$set": bson.M{"is_active": false}}

	result, err := r.MongoCollection.UpdateMany(ctx, filter, update)
	if err != nil {
		utils.TrackError("database", "session_expiry_sweep_failed")
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *SessionRepo) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	timer := utils.TrackDBOperation("delete", "sessions")
	defer timer.ObserveDuration()

	filter := bson.M{"is_active": false, "expires_at": bson.M{"$lt": cutoff}}

	result, err := r.MongoCollection.DeleteMany(ctx, filter)
	if err != nil {
		utils.TrackError("database", "session_cleanup_failed")
		return 0, err
	}
	return result.DeletedCount, nil
}
