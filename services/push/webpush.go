package push

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	subscriptionRepo "github.com/tgiokas/BellNotifications/database/repository/subscription"
	"github.com/tgiokas/BellNotifications/models"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
)

// WebPushSender delivers notifications over the Web Push protocol using
// VAPID keys. Subscriptions come from the subscription store; a 410 Gone
// response purges the stale subscription.
type WebPushSender struct {
	Subs            subscriptionRepo.SubscriptionRepository
	VapidPublicKey  string
	VapidPrivateKey string
	VapidSubject    string
	Logger          *zap.Logger

	// send defaults to webpush.SendNotificationWithContext.
	send func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// NewWebPushSender creates a web push sender, or a NoopSender when the VAPID
// key pair is not configured.
func NewWebPushSender(subs subscriptionRepo.SubscriptionRepository, publicKey, privateKey, subject string, logger *zap.Logger) Sender {
	if publicKey == "" || privateKey == "" {
		logger.Info("VAPID keys not configured, web push disabled")
		return NoopSender{}
	}
	return &WebPushSender{
		Subs:            subs,
		VapidPublicKey:  publicKey,
		VapidPrivateKey: privateKey,
		VapidSubject:    subject,
		Logger:          logger,
	}
}

type pushMessage struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAtUtc"`
}

// SendNotification pushes the notification to the user's subscribed device,
// if any. All failures are logged and absorbed.
func (s *WebPushSender) SendNotification(ctx context.Context, tenantID, userID string, n models.NotificationWithStatus) {
	sub, err := s.Subs.Get(ctx, tenantID, userID)
	if err != nil {
		s.Logger.Warn("Failed to load push subscription",
			zap.String("tenantId", tenantID), zap.String("userId", userID), zap.Error(err))
		return
	}
	if sub == nil {
		s.Logger.Debug("No push subscription found",
			zap.String("tenantId", tenantID), zap.String("userId", userID))
		return
	}

	payload, err := json.Marshal(pushMessage{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		s.Logger.Warn("Failed to serialize push payload", zap.Error(err))
		return
	}

	send := s.send
	if send == nil {
		send = webpush.SendNotificationWithContext
	}
	resp, err := send(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.VapidSubject,
		VAPIDPublicKey:  s.VapidPublicKey,
		VAPIDPrivateKey: s.VapidPrivateKey,
		TTL:             60,
	})
	if err != nil {
		s.Logger.Warn("Failed to send web push notification",
			zap.String("tenantId", tenantID), zap.String("userId", userID), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// The push service answering Gone means the subscription is dead for
	// good and must be purged.
	if resp.StatusCode == http.StatusGone {
		if err := s.Subs.Delete(ctx, tenantID, userID); err != nil {
			s.Logger.Warn("Failed to purge expired push subscription", zap.Error(err))
			return
		}
		s.Logger.Info("Removed expired push subscription",
			zap.String("tenantId", tenantID), zap.String("userId", userID))
		return
	}
	if resp.StatusCode >= 400 {
		s.Logger.Warn("Web push rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("tenantId", tenantID), zap.String("userId", userID))
		return
	}

	s.Logger.Info("Web push notification sent",
		zap.String("tenantId", tenantID), zap.String("userId", userID))
}
