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

func GetActivityLogRepo(client *mongo.Client) *ActivityLogRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("ACTIVITY_LOGS_COLLECTION")
	if collectionName == "" {
		collectionName = "activity_logs"
	}
	return &ActivityLogRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

type ActivityLogRepo struct {
	MongoCollection *mongo.Collection
}

func (r *ActivityLogRepo) Append(ctx context.Context, entry *model.ActivityLog) error {
	timer := utils.TrackDBOperation("insert", "activity_logs")
	defer timer.ObserveDuration()

	if _, err := r.MongoCollection.InsertOne(ctx, entry); err != nil {
		utils.TrackError("database", "activity_append_failed")
		return fmt.Errorf("failed to append activity log: %w", err)
	}
	return nil
}

// EntriesSince feeds the anomaly scanner, ascending by timestamp.
func (r *ActivityLogRepo) EntriesSince(ctx context.Context, since time.Time) ([]*model.ActivityLog, error) {
	timer := utils.TrackDBOperation("find", "activity_logs")
	defer timer.ObserveDuration()

	filter := bson.M{"timestamp": bson.M{"$gte": since}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})

	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.TrackError("database", "activity_lookup_error")
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*model.ActivityLog
	if err := cursor.All(ctx, &entries); err != nil {
		utils.TrackError("database", "activity_decode_error")
		return nil, err
	}

	return entries, nil
}
