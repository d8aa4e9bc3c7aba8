package database

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	phoneIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "phone", Value: 1}},
		Options: options.Index().
			SetName("phone_unique").
			SetUnique(true),
	}

	log.Info("creating index", "collection", "users", "index", "phone_unique")
	if _, err := db.Collection("users").Indexes().CreateOne(ctx, phoneIndex); err != nil {
		log.Error("index creation failed", "collection", "users", "err", err)
		return err
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("userId_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_index"),
		},
		{
			Keys: bson.D{{Key: "paymentIntentId", Value: 1}},
			Options: options.Index().
				SetName("paymentIntentId_index").
				SetPartialFilterExpression(bson.M{
					"paymentIntentId": bson.M{"$exists": true},
				}),
		},
	}

	log.Info("creating indexes", "collection", "orders", "count", len(models))
	if _, err := db.Collection("orders").Indexes().CreateMany(ctx, models); err != nil {
		log.Error("index creation failed", "collection", "orders", "err", err)
		return err
	}
	return nil
}

func EnsureAuditIndexes(db *mongo.Database, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("timestamp_desc"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("userId_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "resource", Value: 1}, {Key: "action", Value: 1}},
			Options: options.Index().SetName("resource_action"),
		},
	}

	log.Info("creating indexes", "collection", "audit_logs", "count", len(models))
	if _, err := db.Collection("audit_logs").Indexes().CreateMany(ctx, models); err != nil {
		log.Error("index creation failed", "collection", "audit_logs", "err", err)
		return err
	}
	return nil
}
