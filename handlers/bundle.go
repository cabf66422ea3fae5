package handlers

import (
	subscriptionRepo "github.com/tgiokas/BellNotifications/database/repository/subscription"
	"github.com/tgiokas/BellNotifications/services/notification"
	"github.com/tgiokas/BellNotifications/services/stream"
)

// HandlerBundle aggregates the handlers so route registration takes a single
// dependency.
type HandlerBundle struct {
	*NotificationHandler
	*StreamHandler
	*PushHandler
}

// NewHandlerBundle wires the handlers from their service dependencies.
func NewHandlerBundle(svc notification.NotificationService, registry *stream.Registry, subs subscriptionRepo.SubscriptionRepository) *HandlerBundle {
	return &HandlerBundle{
		NotificationHandler: NewNotificationHandler(svc),
		StreamHandler:       NewStreamHandler(registry, svc),
		PushHandler:         NewPushHandler(subs),
	}
}
