package notificationRepo

import (
	"context"
	"errors"
	"time"

	"github.com/tgiokas/BellNotifications/models"
)

// ErrStatusNotFound is returned when no status row exists for the given
// (notification, tenant, user) triple.
var ErrStatusNotFound = errors.New("notification status not found")

// ErrDuplicateKey is returned by Insert when the unique
// (tenant, user, dedupeKey) index rejects the write.
var ErrDuplicateKey = errors.New("notification dedupe key already exists")

// NotificationRepository defines the storage contract for notifications and
// their per-user status rows. Notifications are append-only; only status
// timestamps are ever mutated.
type NotificationRepository interface {
	// Insert stores a notification together with its fresh status row in
	// one atomic step. A partial write (notification without status) must
	// never become visible to readers.
	Insert(ctx context.Context, n models.Notification) error

	// GetByDedupeKey returns the notification stored under
	// (tenant, user, dedupeKey), or (nil, nil) when none exists.
	GetByDedupeKey(ctx context.Context, tenantID, userID, dedupeKey string) (*models.Notification, error)

	// ListWithStatus returns up to limit notifications for (tenant, user)
	// joined with their status flags, ordered by (createdAt desc, id desc).
	// When a cursor boundary is given, only rows strictly older than it are
	// returned.
	ListWithStatus(ctx context.Context, tenantID, userID string, cursorCreatedAt *time.Time, cursorID string, limit int) ([]models.NotificationWithStatus, error)

	// CountUnread counts status rows with neither read nor dismissed set.
	CountUnread(ctx context.Context, tenantID, userID string) (int64, error)

	// MarkRead sets the read timestamp if it is not already set. It returns
	// true when the row was updated, false when it was already read, and
	// ErrStatusNotFound when no status row exists.
	MarkRead(ctx context.Context, tenantID, userID, notificationID string, at time.Time) (bool, error)

	// MarkDismissed behaves like MarkRead for the dismissed timestamp.
	MarkDismissed(ctx context.Context, tenantID, userID, notificationID string, at time.Time) (bool, error)

	// MarkAllRead sets the read timestamp on every currently-unread status
	// for (tenant, user) and returns the number of rows changed.
	MarkAllRead(ctx context.Context, tenantID, userID string, at time.Time) (int64, error)
}
