package models

import "time"

// Notification represents a single bell notification. Rows are append-only:
// once created a notification is never mutated, all per-user state lives on
// its NotificationStatus.
type Notification struct {
	ID            string    `bson:"id" json:"id"`                                         // Unique notification identifier (UUID)
	TenantID      string    `bson:"tenant_id,omitempty" json:"tenantId,omitempty"`        // Isolation scope; empty means the shared/global scope
	UserID        string    `bson:"user_id" json:"userId"`                                // Target user
	Type          string    `bson:"type" json:"type"`                                     // Short event code (e.g. "APPROVAL_NEEDED")
	Title         string    `bson:"title" json:"title"`                                   // Display title
	Body          string    `bson:"body,omitempty" json:"body,omitempty"`                 // Optional display body
	Link          string    `bson:"link,omitempty" json:"link,omitempty"`                 // Optional client-side link
	PayloadJSON   string    `bson:"payload_json,omitempty" json:"payloadJson,omitempty"`  // Free-form serialized payload
	Severity      string    `bson:"severity,omitempty" json:"severity,omitempty"`         // Optional severity hint
	SourceService string    `bson:"source_service,omitempty" json:"sourceService,omitempty"` // Producing service
	DedupeKey     string    `bson:"dedupe_key,omitempty" json:"dedupeKey,omitempty"`      // Idempotency key, unique per (tenant, user) when set
	CreatedAt     time.Time `bson:"created_at" json:"createdAtUtc"`                       // Creation timestamp (UTC)
}

// NotificationStatus tracks per-user read/dismiss state for one notification.
// Exactly one status row exists per notification; it is created in the same
// transaction as the notification itself.
type NotificationStatus struct {
	NotificationID string     `bson:"notification_id" json:"notificationId"`
	TenantID       string     `bson:"tenant_id,omitempty" json:"tenantId,omitempty"`
	UserID         string     `bson:"user_id" json:"userId"`
	ReadAt         *time.Time `bson:"read_at,omitempty" json:"readAtUtc,omitempty"`
	DismissedAt    *time.Time `bson:"dismissed_at,omitempty" json:"dismissedAtUtc,omitempty"`
}

// Unread reports whether the status counts toward the unread badge.
func (s NotificationStatus) Unread() bool {
	return s.ReadAt == nil && s.DismissedAt == nil
}

// NotificationWithStatus is a notification joined with its status flags,
// as returned by the listing API and the created-event broadcast.
type NotificationWithStatus struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Body          string    `json:"body,omitempty"`
	Link          string    `json:"link,omitempty"`
	Severity      string    `json:"severity,omitempty"`
	SourceService string    `json:"sourceService,omitempty"`
	CreatedAt     time.Time `json:"createdAtUtc"`
	IsRead        bool      `json:"isRead"`
	IsDismissed   bool      `json:"isDismissed"`
}

// WithStatus projects the notification into its list representation.
func (n Notification) WithStatus(status NotificationStatus) NotificationWithStatus {
	return NotificationWithStatus{
		ID:            n.ID,
		Type:          n.Type,
		Title:         n.Title,
		Body:          n.Body,
		Link:          n.Link,
		Severity:      n.Severity,
		SourceService: n.SourceService,
		CreatedAt:     n.CreatedAt,
		IsRead:        status.ReadAt != nil,
		IsDismissed:   status.DismissedAt != nil,
	}
}

// PushSubscription holds the information for a browser push subscription,
// keyed by (tenant, user).
type PushSubscription struct {
	TenantID  string    `json:"tenantId,omitempty"`
	UserID    string    `json:"userId"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"createdAt"`
}
