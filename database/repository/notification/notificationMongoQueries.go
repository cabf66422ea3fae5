package notificationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tgiokas/BellNotifications/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetByDedupeKey returns the notification stored under the dedupe key, or
// nil when none exists.
func (r *MongoNotificationRepo) GetByDedupeKey(ctx context.Context, tenantID, userID, dedupeKey string) (*models.Notification, error) {
	filter := bson.M{
		"tenant_id":  tenantFilter(tenantID),
		"user_id":    userID,
		"dedupe_key": dedupeKey,
	}

	var n models.Notification
	err := r.notifColl.FindOne(ctx, filter).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up dedupe key: %w", err)
	}
	return &n, nil
}

// CountUnread counts status rows with neither read nor dismissed set.
func (r *MongoNotificationRepo) CountUnread(ctx context.Context, tenantID, userID string) (int64, error) {
	filter := bson.M{
		"tenant_id":    tenantFilter(tenantID),
		"user_id":      userID,
		"read_at":      nil,
		"dismissed_at": nil,
	}
	count, err := r.statusColl.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// listDoc is the aggregation result shape: a notification with its joined
// status rows.
type listDoc struct {
	models.Notification `bson:",inline"`
	Statuses            []models.NotificationStatus `bson:"statuses"`
}

// ListWithStatus returns up to limit notifications joined with their status
// flags, newest first. Rows at or newer than the cursor boundary are skipped.
func (r *MongoNotificationRepo) ListWithStatus(ctx context.Context, tenantID, userID string, cursorCreatedAt *time.Time, cursorID string, limit int) ([]models.NotificationWithStatus, error) {
	match := bson.M{
		"tenant_id": tenantFilter(tenantID),
		"user_id":   userID,
	}
	if cursorCreatedAt != nil {
		match["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": *cursorCreatedAt}},
			bson.M{"created_at": *cursorCreatedAt, "id": bson.M{"$lt": cursorID}},
		}
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "id", Value: -1}}}},
		bson.D{{Key: "$limit", Value: limit}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         r.statusColl.Name(),
			"localField":   "id",
			"foreignField": "notification_id",
			"as":           "statuses",
		}}},
	}

	cursor, err := r.notifColl.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []listDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}

	items := make([]models.NotificationWithStatus, 0, len(docs))
	for _, doc := range docs {
		var status models.NotificationStatus
		if len(doc.Statuses) > 0 {
			status = doc.Statuses[0]
		}
		items = append(items, doc.Notification.WithStatus(status))
	}
	return items, nil
}
