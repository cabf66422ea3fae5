package notification

import (
	"context"

	"github.com/tgiokas/BellNotifications/models"
)

// NotificationService owns notification creation (with dedup), unread
// accounting, cursor pagination, and triggering fan-out after state changes.
type NotificationService interface {
	// Create stores a new notification and returns its id. When the request
	// carries a dedupe key already present for (tenant, user), the existing
	// notification's id is returned and nothing new is created.
	Create(ctx context.Context, req models.CreateNotificationRequest) (string, error)

	// GetUnreadCount counts notifications that are neither read nor dismissed.
	GetUnreadCount(ctx context.Context, tenantID, userID string) (int64, error)

	// List returns one page of notifications, newest first. An empty or
	// malformed cursor yields the first page.
	List(ctx context.Context, tenantID, userID, cursor string, limit int) (models.NotificationListResponse, error)

	// MarkAsRead sets the read timestamp; already-read is a no-op.
	MarkAsRead(ctx context.Context, tenantID, userID, notificationID string) error

	// Dismiss sets the dismissed timestamp; already-dismissed is a no-op.
	Dismiss(ctx context.Context, tenantID, userID, notificationID string) error

	// MarkAllAsRead marks every unread notification read in one step.
	MarkAllAsRead(ctx context.Context, tenantID, userID string) error
}

// Broadcaster fans a state change out to the user's live stream sessions.
// Satisfied by *stream.Registry.
type Broadcaster interface {
	BroadcastUnreadCount(tenantID, userID string, count int64)
	BroadcastNotificationCreated(tenantID, userID string, n models.NotificationWithStatus)
}
