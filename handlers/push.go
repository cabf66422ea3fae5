package handlers

import (
	"net/http"
	"time"

	"github.com/tgiokas/BellNotifications/config"
	subscriptionRepo "github.com/tgiokas/BellNotifications/database/repository/subscription"
	"github.com/tgiokas/BellNotifications/models"
	"github.com/tgiokas/BellNotifications/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PushHandler manages web push subscriptions for the authenticated user.
type PushHandler struct {
	Subs subscriptionRepo.SubscriptionRepository
}

// NewPushHandler creates a PushHandler.
func NewPushHandler(subs subscriptionRepo.SubscriptionRepository) *PushHandler {
	return &PushHandler{Subs: subs}
}

// GetVapidPublicKeyHandler handles GET /notifications/vapid-public-key.
// Clients need the public key to create a browser push subscription.
func (h *PushHandler) GetVapidPublicKeyHandler(c *gin.Context) {
	key := config.AppConfig.VapidPublicKey
	if key == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "web push is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": key})
}

// SavePushSubscriptionHandler handles POST /notifications/push-subscription.
// Saving overwrites any existing subscription for the user.
func (h *PushHandler) SavePushSubscriptionHandler(c *gin.Context) {
	logger := utils.GetLogger()
	tenantID, userID, ok := userContext(c)
	if !ok {
		return
	}

	var payload models.PushSubscriptionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub := models.PushSubscription{
		TenantID:  tenantID,
		UserID:    userID,
		Endpoint:  payload.Endpoint,
		P256dh:    payload.P256dh,
		Auth:      payload.Auth,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Subs.Save(c.Request.Context(), sub); err != nil {
		logger.Error("Failed to save push subscription", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save push subscription"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeletePushSubscriptionHandler handles DELETE /notifications/push-subscription.
func (h *PushHandler) DeletePushSubscriptionHandler(c *gin.Context) {
	logger := utils.GetLogger()
	tenantID, userID, ok := userContext(c)
	if !ok {
		return
	}

	if err := h.Subs.Delete(c.Request.Context(), tenantID, userID); err != nil {
		logger.Error("Failed to delete push subscription", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete push subscription"})
		return
	}
	c.Status(http.StatusNoContent)
}
