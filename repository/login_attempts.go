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

func GetLoginAttemptRepo(client *mongo.Client) *LoginAttemptRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("LOGIN_ATTEMPTS_COLLECTION")
	if collectionName == "" {
		collectionName = "login_attempts"
	}
	return &LoginAttemptRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

type LoginAttemptRepo struct {
	MongoCollection *mongo.Collection
}

func (r *LoginAttemptRepo) Record(ctx context.Context, attempt *model.LoginAttempt) error {
	timer := utils.TrackDBOperation("insert", "login_attempts")
	defer timer.ObserveDuration()

	if _, err := r.MongoCollection.InsertOne(ctx, attempt); err != nil {
		utils.TrackError("database", "attempt_record_failed")
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

// CountFailedSince counts failures for a username/IP pair inside the
// lockout window.
func (r *LoginAttemptRepo) CountFailedSince(ctx context.Context, username, ip string, since time.Time) (int, error) {
	timer := utils.TrackDBOperation("count", "login_attempts")
	defer timer.ObserveDuration()

	filter := bson.M{
		"username":     username,
		"ip_address":   ip,
		"successful":   false,
		"attempted_at": bson.M{"$gte": since},
	}

	count, err := r.MongoCollection.CountDocuments(ctx, filter)
	if err != nil {
		utils.TrackError("database", "attempt_count_error")
		return 0, err
	}
	return int(count), nil
}

func (r *LoginAttemptRepo) LastFailed(ctx context.Context, username, ip string) (*model.LoginAttempt, error) {
	timer := utils.TrackDBOperation("find", "login_attempts")
	defer timer.ObserveDuration()

	filter := bson.M{
		"username":   username,
		"ip_address": ip,
		"successful": false,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "attempted_at", Value: -1}})

	var attempt model.LoginAttempt
	err := r.MongoCollection.FindOne(ctx, filter, opts).Decode(&attempt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "attempt_lookup_error")
		return nil, err
	}

	return &attempt, nil
}

func (r *LoginAttemptRepo) ClearFailed(ctx context.Context, username, ip string) error {
	timer := utils.TrackDBOperation("delete", "login_attempts")
	defer timer.ObserveDuration()

	filter := bson.M{
		"username":   username,
		"ip_address": ip,
		"successful": false,
	}

	if _, err := r.MongoCollection.DeleteMany(ctx, filter); err != nil {
		utils.TrackError("database", "attempt_clear_failed")
		return err
	}
	return nil
}
