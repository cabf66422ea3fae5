package notificationRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/tgiokas/BellNotifications/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Insert stores a notification and its status row transactionally, so a
// reader can never observe a notification without its paired status.
func (r *MongoNotificationRepo) Insert(ctx context.Context, n models.Notification) error {
	status := models.NotificationStatus{
		NotificationID: n.ID,
		TenantID:       n.TenantID,
		UserID:         n.UserID,
	}

	client := r.notifColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		if _, err := r.notifColl.InsertOne(sc, n); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrDuplicateKey
			}
			return fmt.Errorf("insert notification failed: %w", err)
		}
		if _, err := r.statusColl.InsertOne(sc, status); err != nil {
			return fmt.Errorf("insert notification status failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return fmt.Errorf("notification insert transaction failed: %w", err)
	}

	return nil
}

// MarkRead sets the read timestamp if it is still unset. The conditional
// filter makes concurrent marks safe: the first writer wins, later ones
// observe the timestamp already set and no-op.
func (r *MongoNotificationRepo) MarkRead(ctx context.Context, tenantID, userID, notificationID string, at time.Time) (bool, error) {
	return r.setStatusTimestamp(ctx, tenantID, userID, notificationID, "read_at", at)
}

// MarkDismissed sets the dismissed timestamp if it is still unset.
func (r *MongoNotificationRepo) MarkDismissed(ctx context.Context, tenantID, userID, notificationID string, at time.Time) (bool, error) {
	return r.setStatusTimestamp(ctx, tenantID, userID, notificationID, "dismissed_at", at)
}

func (r *MongoNotificationRepo) setStatusTimestamp(ctx context.Context, tenantID, userID, notificationID, field string, at time.Time) (bool, error) {
	filter := bson.M{
		"notification_id": notificationID,
		"tenant_id":       tenantFilter(tenantID),
		"user_id":         userID,
		field:             nil,
	}

	res, err := r.statusColl.UpdateOne(ctx, filter, bson.M{"$set": bson.M{field: at}})
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", field, err)
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}

	// Nothing matched: either the timestamp is already set (no-op) or the
	// status row does not exist at all.
	count, err := r.statusColl.CountDocuments(ctx, bson.M{
		"notification_id": notificationID,
		"tenant_id":       tenantFilter(tenantID),
		"user_id":         userID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to look up status row: %w", err)
	}
	if count == 0 {
		return false, ErrStatusNotFound
	}
	return false, nil
}

// MarkAllRead bulk-sets the read timestamp on every unread status row for
// the user in one step.
func (r *MongoNotificationRepo) MarkAllRead(ctx context.Context, tenantID, userID string, at time.Time) (int64, error) {
	filter := bson.M{
		"tenant_id": tenantFilter(tenantID),
		"user_id":   userID,
		"read_at":   nil,
	}
	res, err := r.statusColl.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read_at": at}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark all as read: %w", err)
	}
	return res.ModifiedCount, nil
}
