package notificationRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/tgiokas/BellNotifications/config"
	"github.com/tgiokas/BellNotifications/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoNotificationRepo implements NotificationRepository using MongoDB.
type MongoNotificationRepo struct {
	notifColl  *mongo.Collection
	statusColl *mongo.Collection
}

// NewMongoNotificationRepo creates a new instance of NotificationRepository
// using MongoDB.
func NewMongoNotificationRepo() NotificationRepository {
	db := database.MongoClient.Database(config.AppConfig.MongoDatabase)
	repo := &MongoNotificationRepo{
		notifColl:  db.Collection("notifications"),
		statusColl: db.Collection("notification_statuses"),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// tenantFilter builds the tenant part of a query filter. An empty tenant is
// stored as an absent field, so it must be matched with $exists.
func tenantFilter(tenantID string) interface{} {
	if tenantID == "" {
		return bson.M{"$exists": false}
	}
	return tenantID
}
