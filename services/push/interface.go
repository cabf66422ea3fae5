package push

import (
	"context"

	"github.com/tgiokas/BellNotifications/models"
)

// Sender delivers a notification to a user's subscribed device out of band.
// Delivery is best-effort everywhere: implementations log failures and never
// surface them to the caller.
type Sender interface {
	SendNotification(ctx context.Context, tenantID, userID string, n models.NotificationWithStatus)
}

// NoopSender is the Sender used when web push is not configured.
type NoopSender struct{}

func (NoopSender) SendNotification(ctx context.Context, tenantID, userID string, n models.NotificationWithStatus) {
}
