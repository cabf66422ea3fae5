package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	notificationRepo "github.com/tgiokas/BellNotifications/database/repository/notification"
	"github.com/tgiokas/BellNotifications/models"
	"github.com/tgiokas/BellNotifications/services/push"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minPageSize = 1
	maxPageSize = 100

	// pushTimeout bounds the detached push delivery so it cannot hang
	// forever after the triggering call has returned.
	pushTimeout = 30 * time.Second
)

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	Repo      notificationRepo.NotificationRepository
	Broadcast Broadcaster
	Push      push.Sender
	Logger    *zap.Logger
}

// Create stores a notification with its status row, fans the change out to
// live sessions, and forwards it to the push gateway best-effort. Requests
// carrying an already-seen dedupe key return the existing id.
func (s *DefaultNotificationService) Create(ctx context.Context, req models.CreateNotificationRequest) (string, error) {
	if req.UserID == "" || req.Type == "" || req.Title == "" {
		return "", ErrInvalidRequest
	}

	if req.DedupeKey != "" {
		existing, err := s.Repo.GetByDedupeKey(ctx, req.TenantID, req.UserID, req.DedupeKey)
		if err != nil {
			return "", fmt.Errorf("dedupe lookup failed: %w", err)
		}
		if existing != nil {
			s.Logger.Info("Duplicate notification skipped due to dedupe key",
				zap.String("dedupeKey", req.DedupeKey),
				zap.String("userId", req.UserID))
			return existing.ID, nil
		}
	}

	n := models.Notification{
		ID:            uuid.New().String(),
		TenantID:      req.TenantID,
		UserID:        req.UserID,
		Type:          req.Type,
		Title:         req.Title,
		Body:          req.Body,
		Link:          req.Link,
		PayloadJSON:   req.PayloadJSON,
		Severity:      req.Severity,
		SourceService: req.SourceService,
		DedupeKey:     req.DedupeKey,
		// BSON datetimes carry millisecond precision; truncate up front so
		// the stored value round-trips through the cursor encoding exactly.
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := s.Repo.Insert(ctx, n); err != nil {
		// A concurrent create with the same dedupe key may have won the
		// unique index race between lookup and insert.
		if req.DedupeKey != "" && errors.Is(err, notificationRepo.ErrDuplicateKey) {
			existing, lookupErr := s.Repo.GetByDedupeKey(ctx, req.TenantID, req.UserID, req.DedupeKey)
			if lookupErr == nil && existing != nil {
				return existing.ID, nil
			}
		}
		return "", fmt.Errorf("failed to insert notification: %w", err)
	}

	s.broadcastUnreadCount(ctx, n.TenantID, n.UserID)

	created := n.WithStatus(models.NotificationStatus{})
	s.Broadcast.BroadcastNotificationCreated(n.TenantID, n.UserID, created)

	// Push delivery is a detached side channel; its errors are logged by
	// the sender and never reach this caller.
	go func() {
		pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		s.Push.SendNotification(pushCtx, n.TenantID, n.UserID, created)
	}()

	return n.ID, nil
}

// GetUnreadCount counts notifications that are neither read nor dismissed.
func (s *DefaultNotificationService) GetUnreadCount(ctx context.Context, tenantID, userID string) (int64, error) {
	count, err := s.Repo.CountUnread(ctx, tenantID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// List returns one page of notifications strictly older than the cursor
// boundary, newest first, with a nextCursor while more rows remain.
func (s *DefaultNotificationService) List(ctx context.Context, tenantID, userID, cursor string, limit int) (models.NotificationListResponse, error) {
	if limit < minPageSize {
		limit = minPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	cursorCreatedAt, cursorID := DecodeCursor(cursor)

	// Fetch one extra row to learn whether a next page exists.
	items, err := s.Repo.ListWithStatus(ctx, tenantID, userID, cursorCreatedAt, cursorID, limit+1)
	if err != nil {
		return models.NotificationListResponse{}, fmt.Errorf("failed to list notifications: %w", err)
	}

	resp := models.NotificationListResponse{Items: items}
	if len(items) > limit {
		resp.Items = items[:limit]
		last := resp.Items[len(resp.Items)-1]
		resp.NextCursor = EncodeCursor(last.CreatedAt, last.ID)
	}
	return resp, nil
}

// MarkAsRead sets the read timestamp and broadcasts the new unread count.
// An already-read notification is a no-op without a broadcast.
func (s *DefaultNotificationService) MarkAsRead(ctx context.Context, tenantID, userID, notificationID string) error {
	updated, err := s.Repo.MarkRead(ctx, tenantID, userID, notificationID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, notificationRepo.ErrStatusNotFound) {
			return ErrStatusNotFound
		}
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if updated {
		s.broadcastUnreadCount(ctx, tenantID, userID)
	}
	return nil
}

// Dismiss sets the dismissed timestamp and broadcasts the new unread count.
func (s *DefaultNotificationService) Dismiss(ctx context.Context, tenantID, userID, notificationID string) error {
	updated, err := s.Repo.MarkDismissed(ctx, tenantID, userID, notificationID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, notificationRepo.ErrStatusNotFound) {
			return ErrStatusNotFound
		}
		return fmt.Errorf("failed to dismiss notification: %w", err)
	}
	if updated {
		s.broadcastUnreadCount(ctx, tenantID, userID)
	}
	return nil
}

// MarkAllAsRead bulk-marks every unread notification read. One broadcast is
// sent if any rows changed, regardless of how many.
func (s *DefaultNotificationService) MarkAllAsRead(ctx context.Context, tenantID, userID string) error {
	changed, err := s.Repo.MarkAllRead(ctx, tenantID, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	if changed > 0 {
		s.broadcastUnreadCount(ctx, tenantID, userID)
	}
	return nil
}

func (s *DefaultNotificationService) broadcastUnreadCount(ctx context.Context, tenantID, userID string) {
	count, err := s.Repo.CountUnread(ctx, tenantID, userID)
	if err != nil {
		s.Logger.Warn("Failed to compute unread count for broadcast",
			zap.String("userId", userID), zap.Error(err))
		return
	}
	s.Broadcast.BroadcastUnreadCount(tenantID, userID, count)
}
