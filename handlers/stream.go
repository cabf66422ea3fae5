package handlers

import (
	"net/http"
	"time"

	"github.com/tgiokas/BellNotifications/config"
	"github.com/tgiokas/BellNotifications/models"
	"github.com/tgiokas/BellNotifications/services/notification"
	"github.com/tgiokas/BellNotifications/services/stream"
	"github.com/tgiokas/BellNotifications/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StreamHandler serves the live SSE stream and the stream token endpoint.
type StreamHandler struct {
	Registry *stream.Registry
	Service  notification.NotificationService
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(registry *stream.Registry, svc notification.NotificationService) *StreamHandler {
	return &StreamHandler{Registry: registry, Service: svc}
}

// StreamTokenHandler handles POST /notifications/stream-token. It mints a
// short-lived token scoped to stream admission for the authenticated caller.
func (h *StreamHandler) StreamTokenHandler(c *gin.Context) {
	logger := utils.GetLogger()
	tenantID, userID, ok := userContext(c)
	if !ok {
		return
	}

	expiry := time.Duration(config.AppConfig.StreamTokenExpiryMinutes) * time.Minute
	token, expiresAt, err := utils.GenerateStreamToken(userID, tenantID, expiry)
	if err != nil {
		logger.Error("Failed to generate stream token", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate stream token"})
		return
	}
	c.JSON(http.StatusOK, models.StreamTokenResponse{StreamToken: token, ExpiresAt: expiresAt})
}

// StreamEventsHandler handles GET /notifications/stream. Admission uses the
// stream_token query parameter because EventSource cannot set headers.
// The handler blocks until the client disconnects.
func (h *StreamHandler) StreamEventsHandler(c *gin.Context) {
	logger := utils.GetLogger()

	token := c.Query("stream_token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stream_token is required"})
		return
	}
	userID, tenantID, err := utils.ValidateStreamToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid stream token"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	session, err := stream.NewSession(c.Request.Context(), c.Writer, logger)
	if err != nil {
		logger.Error("Failed to open stream session", zap.String("userId", userID), zap.Error(err))
		return
	}

	h.Registry.Register(tenantID, userID, session)
	defer h.Registry.Unregister(tenantID, userID, session)

	// Initial snapshot so the client renders the badge without a second call.
	count, err := h.Service.GetUnreadCount(c.Request.Context(), tenantID, userID)
	if err != nil {
		logger.Warn("Failed to load initial unread count", zap.String("userId", userID), zap.Error(err))
	} else {
		if err := session.Send(stream.EventUnreadCount, models.UnreadCountResponse{UnreadCount: count}); err != nil {
			return
		}
	}

	logger.Info("SSE stream opened", zap.String("userId", userID), zap.String("tenantId", tenantID))
	session.Keepalive()
	logger.Info("SSE stream closed", zap.String("userId", userID), zap.String("tenantId", tenantID))
}
