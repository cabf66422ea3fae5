package notificationRepo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoNotificationRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	notifIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		// Pagination order: newest first, id breaks timestamp ties.
		{Keys: bson.D{
			{Key: "tenant_id", Value: 1},
			{Key: "user_id", Value: 1},
			{Key: "created_at", Value: -1},
			{Key: "id", Value: -1},
		}},
		// A dedupe key is unique per (tenant, user) whenever it is set.
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "user_id", Value: 1},
				{Key: "dedupe_key", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"dedupe_key": bson.M{"$exists": true}}),
		},
	}
	if _, err := r.notifColl.Indexes().CreateMany(ctx, notifIndexes); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}

	statusIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "notification_id", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		// Unread count lookups.
		{Keys: bson.D{
			{Key: "tenant_id", Value: 1},
			{Key: "user_id", Value: 1},
			{Key: "read_at", Value: 1},
			{Key: "dismissed_at", Value: 1},
		}},
	}
	if _, err := r.statusColl.Indexes().CreateMany(ctx, statusIndexes); err != nil {
		return fmt.Errorf("failed to create status indexes: %w", err)
	}
	return nil
}
