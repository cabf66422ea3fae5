package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// KeepaliveInterval is how often a session emits a ping so intermediary
// proxies do not time out an otherwise idle connection.
const KeepaliveInterval = 25 * time.Second

// Event types written on the wire.
const (
	EventUnreadCount         = "unread_count"
	EventNotificationCreated = "notification_created"
	EventPing                = "ping"
)

// ErrDisconnected is returned by Send when the client is no longer attached.
var ErrDisconnected = errors.New("stream session disconnected")

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("response writer does not support streaming")

// Session is one open server-sent-events stream to a single client. Writes
// are serialized internally; liveness follows the request context.
type Session struct {
	w       http.ResponseWriter
	flusher http.Flusher
	ctx     context.Context
	logger  *zap.Logger

	mu sync.Mutex
}

// NewSession wraps an HTTP response in an SSE session. The request context
// drives liveness: once it is cancelled the session reports disconnected.
func NewSession(ctx context.Context, w http.ResponseWriter, logger *zap.Logger) (*Session, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &Session{
		w:       w,
		flusher: flusher,
		ctx:     ctx,
		logger:  logger,
	}, nil
}

// IsConnected is a cheap liveness check.
func (s *Session) IsConnected() bool {
	return s.ctx.Err() == nil
}

// Send serializes data and writes one framed SSE event, flushing
// immediately. A closed transport yields ErrDisconnected, never a panic.
func (s *Session) Send(eventType string, data interface{}) error {
	if !s.IsConnected() {
		return ErrDisconnected
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize %s event: %w", eventType, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		return ErrDisconnected
	}
	s.flusher.Flush()
	return nil
}

type pingPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

// Keepalive emits a ping every KeepaliveInterval until the session
// disconnects. It blocks and is meant to run as the session's handler loop.
func (s *Session) Keepalive() {
	ticker := time.NewTicker(KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.Send(EventPing, pingPayload{Timestamp: time.Now().UTC()}); err != nil {
				if !errors.Is(err, ErrDisconnected) {
					s.logger.Warn("Failed to send keepalive ping", zap.Error(err))
				}
				return
			}
		}
	}
}
