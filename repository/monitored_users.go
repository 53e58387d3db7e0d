package repository

import (
	"context"
	"fmt"
	"os"

	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func GetMonitoredUserRepo(client *mongo.Client) *MonitoredUserRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("MONITORED_USERS_COLLECTION")
	if collectionName == "" {
		collectionName = "monitored_users"
	}
	return &MonitoredUserRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

type MonitoredUserRepo struct {
	MongoCollection *mongo.Collection
}

func (r *MonitoredUserRepo) Insert(ctx context.Context, mu *model.MonitoredUser) error {
	timer := utils.TrackDBOperation("insert", "monitored_users")
	defer timer.ObserveDuration()

	if _, err := r.MongoCollection.InsertOne(ctx, mu); err != nil {
		utils.TrackError("database", "monitor_insert_failed")
		return fmt.Errorf("failed to insert monitored user: %w", err)
	}
	return nil
}

func (r *MonitoredUserRepo) ActiveForUser(ctx context.Context, userID string) (*model.MonitoredUser, error) {
	timer := utils.TrackDBOperation("find", "monitored_users")
	defer timer.ObserveDuration()

	var mu model.MonitoredUser
	filter := bson.M{"user_id": userID, "is_active": true}

	err := r.MongoCollection.FindOne(ctx, filter).Decode(&mu)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "monitor_lookup_error")
		return nil, err
	}

	return &mu, nil
}

func (r *MonitoredUserRepo) FindByID(ctx context.Context, monitorID string) (*model.MonitoredUser, error) {
	timer := utils.TrackDBOperation("find", "monitored_users")
	defer timer.ObserveDuration()

	var mu model.MonitoredUser
	filter := bson.D{{Key: "monitor_id", Value: monitorID}}

	err := r.MongoCollection.FindOne(ctx, filter).Decode(&mu)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "monitor_lookup_error")
		return nil, err
	}

	return &mu, nil
}

func (r *MonitoredUserRepo) Update(ctx context.Context, mu *model.MonitoredUser) error {
	timer := utils.TrackDBOperation("update", "monitored_users")
	defer timer.ObserveDuration()

	filter := bson.M{"monitor_id": mu.MonitorID}
	result, err := r.MongoCollection.ReplaceOne(ctx, filter, mu)
	if err != nil {
		utils.TrackError("database", "monitor_update_failed")
		return fmt.Errorf("failed to update monitored user: %w", err)
	}
	if result.MatchedCount == 0 {
		utils.TrackError("database", "monitor_not_found")
		return fmt.Errorf("monitored user not found")
	}
	return nil
}

func (r *MonitoredUserRepo) List(ctx context.Context, activeOnly bool) ([]*model.MonitoredUser, error) {
	timer := utils.TrackDBOperation("find", "monitored_users")
	defer timer.ObserveDuration()

	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "detected_at", Value: -1}})

	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.TrackError("database", "monitor_lookup_error")
		return nil, err
	}
	defer cursor.Close(ctx)

	var list []*model.MonitoredUser
	if err := cursor.All(ctx, &list); err != nil {
		utils.TrackError("database", "monitor_decode_error")
		return nil, err
	}

	return list, nil
}
