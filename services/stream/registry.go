package stream

import (
	"errors"
	"sync"

	"github.com/tgiokas/BellNotifications/models"

	"go.uber.org/zap"
)

// Registry is the process-wide table of live streaming sessions, keyed by
// (tenant, user). It holds sessions but does not own their lifetime; the
// transport layer creates and destroys them. Locking is scoped per key so
// traffic for one user never contends with another's.
type Registry struct {
	entries sync.Map // connection key -> *entry
	logger  *zap.Logger
}

type entry struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}
	closed   bool // set when the entry was removed from the map
}

// NewRegistry creates an empty connection registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{logger: logger}
}

func connectionKey(tenantID, userID string) string {
	if tenantID == "" {
		tenantID = "null"
	}
	return tenantID + ":" + userID
}

// Register adds a session under its (tenant, user) key. The caller
// guarantees one registration per connection.
func (r *Registry) Register(tenantID, userID string, s *Session) {
	key := connectionKey(tenantID, userID)
	for {
		v, _ := r.entries.LoadOrStore(key, &entry{sessions: make(map[*Session]struct{})})
		e := v.(*entry)

		e.mu.Lock()
		if e.closed {
			// Lost a race with the last unregister; the entry is gone from
			// the map, so load a fresh one.
			e.mu.Unlock()
			continue
		}
		e.sessions[s] = struct{}{}
		total := len(e.sessions)
		e.mu.Unlock()

		r.logger.Info("Registered stream session",
			zap.String("tenantId", tenantID),
			zap.String("userId", userID),
			zap.Int("sessions", total))
		return
	}
}

// Unregister removes a session; it is a no-op when the session is absent.
// The key's entry is deleted once its session set becomes empty.
func (r *Registry) Unregister(tenantID, userID string, s *Session) {
	key := connectionKey(tenantID, userID)
	v, ok := r.entries.Load(key)
	if !ok {
		return
	}
	e := v.(*entry)

	e.mu.Lock()
	delete(e.sessions, s)
	remaining := len(e.sessions)
	if remaining == 0 && !e.closed {
		e.closed = true
		r.entries.Delete(key)
	}
	e.mu.Unlock()

	r.logger.Info("Unregistered stream session",
		zap.String("tenantId", tenantID),
		zap.String("userId", userID),
		zap.Int("sessions", remaining))
}

// SessionCount reports how many sessions are currently registered for a key.
func (r *Registry) SessionCount(tenantID, userID string) int {
	v, ok := r.entries.Load(connectionKey(tenantID, userID))
	if !ok {
		return 0
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

type unreadCountPayload struct {
	UnreadCount int64 `json:"unreadCount"`
}

// BroadcastUnreadCount sends the current unread count to every live session
// under the key.
func (r *Registry) BroadcastUnreadCount(tenantID, userID string, count int64) {
	r.broadcast(tenantID, userID, EventUnreadCount, unreadCountPayload{UnreadCount: count})
}

// BroadcastNotificationCreated sends a freshly created notification to every
// live session under the key.
func (r *Registry) BroadcastNotificationCreated(tenantID, userID string, n models.NotificationWithStatus) {
	r.broadcast(tenantID, userID, EventNotificationCreated, n)
}

// broadcast delivers one event to every live session for the key. Delivery
// is best-effort: dead sessions found along the way are pruned, and a slow
// session only delays its own goroutine.
func (r *Registry) broadcast(tenantID, userID, eventType string, data interface{}) {
	v, ok := r.entries.Load(connectionKey(tenantID, userID))
	if !ok {
		return
	}
	e := v.(*entry)

	e.mu.Lock()
	live := make([]*Session, 0, len(e.sessions))
	for s := range e.sessions {
		if s.IsConnected() {
			live = append(live, s)
		} else {
			delete(e.sessions, s)
		}
	}
	if len(e.sessions) == 0 && !e.closed {
		e.closed = true
		r.entries.Delete(connectionKey(tenantID, userID))
	}
	e.mu.Unlock()

	for _, s := range live {
		go func(s *Session) {
			if err := s.Send(eventType, data); err != nil {
				if errors.Is(err, ErrDisconnected) {
					r.Unregister(tenantID, userID, s)
					return
				}
				r.logger.Warn("Failed to broadcast stream event",
					zap.String("event", eventType),
					zap.String("userId", userID),
					zap.Error(err))
			}
		}(s)
	}
}
