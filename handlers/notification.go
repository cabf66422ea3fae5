package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/tgiokas/BellNotifications/config"
	"github.com/tgiokas/BellNotifications/models"
	"github.com/tgiokas/BellNotifications/services/notification"
	"github.com/tgiokas/BellNotifications/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NotificationHandler serves the authenticated notification endpoints.
type NotificationHandler struct {
	Service notification.NotificationService
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(svc notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: svc}
}

// userContext reads the caller identity placed on the context by the auth
// middleware.
func userContext(c *gin.Context) (tenantID, userID string, ok bool) {
	id, exists := c.Get("userID")
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
		return "", "", false
	}
	userID, ok = id.(string)
	if !ok || userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
		return "", "", false
	}
	if t, exists := c.Get("tenantID"); exists {
		tenantID, _ = t.(string)
	}
	return tenantID, userID, true
}

// GetUnreadCountHandler handles GET /notifications/unread-count.
func (h *NotificationHandler) GetUnreadCountHandler(c *gin.Context) {
	logger := utils.GetLogger()
	tenantID, userID, ok := userContext(c)
	if !ok {
		return
	}

	count, err := h.Service.GetUnreadCount(c.Request.Context(), tenantID, userID)
	if err != nil {
		logger.Error("Failed to get unread count", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get unread count"})
		return
	}
	c.JSON(http.StatusOK, models.UnreadCountResponse{UnreadCount: count})
}

// ListNotificationsHandler handles GET /notifications.
func (h *NotificationHandler) ListNotificationsHandler(c *gin.Context) {
	logger := utils.GetLogger()
	tenantID, userID, ok := userContext(c)
	if !ok {
		return
	}

	cursor := c.Query("cursor")
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	page, err := h.Service.List(c.Request.Context(), tenantID, userID, cursor, limit)
	if err != nil {
		logger.Error("Failed to list notifications", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// MarkAsReadHandler handles POST /notifications/:id/read.
func (h *NotificationHandler) MarkAsReadHandler(c *gin.Context) {
	h.updateStatus(c, h.Service.MarkAsRead)
}

// DismissHandler handles POST /notifications/:id/dismiss.
func (h *NotificationHandler) DismissHandler(c *gin.Context) {
	h.updateStatus(c, h.Service.Dismiss)
}

func (h *NotificationHandler) updateStatus(c *gin.Context, op func(ctx context.Context, tenantID, userID, id string) error) {
	logger := utils.GetLogger()
	tenantID, userID, ok := userContext(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "notification id is required"})
		return
	}

	if err := op(c.Request.Context(), tenantID, userID, id); err != nil {
		if errors.Is(err, notification.ErrStatusNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		logger.Error("Failed to update notification status",
			zap.String("notificationId", id), zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notification"})
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllAsReadHandler handles POST /notifications/read-all.
func (h *NotificationHandler) MarkAllAsReadHandler(c *gin.Context) {
	logger := utils.GetLogger()
	tenantID, userID, ok := userContext(c)
	if !ok {
		return
	}

	if err := h.Service.MarkAllAsRead(c.Request.Context(), tenantID, userID); err != nil {
		logger.Error("Failed to mark all as read", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark all as read"})
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateNotificationHandler handles POST /notifications. The endpoint is
// meant for internal tooling and is disabled unless the feature flag is on.
func (h *NotificationHandler) CreateNotificationHandler(c *gin.Context) {
	logger := utils.GetLogger()
	if !config.AppConfig.AllowInternalCreation {
		c.JSON(http.StatusForbidden, gin.H{"error": "internal notification creation is disabled"})
		return
	}

	var req models.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.Service.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, notification.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to create notification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}
