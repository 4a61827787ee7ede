package database

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the SOS pipeline queries depend on.
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reportIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}},
		},
		{
			// Region feed: active reports by state, status then recency
			Keys: bson.D{{Key: "state", Value: 1}, {Key: "status", Value: 1}, {Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}

	if _, err := db.Collection("sos_reports").Indexes().CreateMany(ctx, reportIndexes); err != nil {
		return err
	}

	commentIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "reportId", Value: 1}, {Key: "createdAt", Value: 1}},
		},
	}
	if _, err := db.Collection("sos_comments").Indexes().CreateMany(ctx, commentIndexes); err != nil {
		return err
	}

	userIndexes := []mongo.IndexModel{
		{
			// Login resolves accounts by verified phone number.
			Keys:    bson.D{{Key: "phoneNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Collection("users").Indexes().CreateMany(ctx, userIndexes); err != nil {
		return err
	}

	historyIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Collection("sos_history").Indexes().CreateMany(ctx, historyIndexes); err != nil {
		return err
	}

	logrus.Info("MongoDB indexes ensured")
	return nil
}
