package subscriptionRepo

import (
	"context"

	"github.com/tgiokas/BellNotifications/models"
)

// SubscriptionRepository stores at most one browser push subscription per
// (tenant, user) pair.
type SubscriptionRepository interface {
	// Save upserts the subscription for its (tenant, user) key.
	Save(ctx context.Context, sub models.PushSubscription) error

	// Get returns the stored subscription, or (nil, nil) when none exists.
	Get(ctx context.Context, tenantID, userID string) (*models.PushSubscription, error)

	// Delete removes the subscription; it is a no-op when absent.
	Delete(ctx context.Context, tenantID, userID string) error
}
