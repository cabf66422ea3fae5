package models

import "time"

// CreateNotificationRequest is the creation payload accepted from both the
// event bus and the internal HTTP endpoint.
type CreateNotificationRequest struct {
	TenantID      string `json:"tenantId,omitempty"`
	UserID        string `json:"userId"`
	Type          string `json:"type"`
	Title         string `json:"title"`
	Body          string `json:"body,omitempty"`
	Link          string `json:"link,omitempty"`
	PayloadJSON   string `json:"payloadJson,omitempty"`
	Severity      string `json:"severity,omitempty"`
	SourceService string `json:"sourceService,omitempty"`
	DedupeKey     string `json:"dedupeKey,omitempty"`
}

// NotificationListResponse is one page of notifications. NextCursor is empty
// on the final page.
type NotificationListResponse struct {
	Items      []NotificationWithStatus `json:"items"`
	NextCursor string                   `json:"nextCursor,omitempty"`
}

// UnreadCountResponse carries the unread badge count.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unreadCount"`
}

// StreamTokenResponse is the minted stream admission token.
type StreamTokenResponse struct {
	StreamToken string    `json:"streamToken"`
	ExpiresAt   time.Time `json:"expiresAtUtc"`
}

// PushSubscriptionPayload is the browser subscription sent by a client.
// UserID and TenantID are always overridden from the bearer token.
type PushSubscriptionPayload struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256dh   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}
