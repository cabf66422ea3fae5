package routes

import (
	"net/http"
	"time"

	"github.com/tgiokas/BellNotifications/handlers"
	"github.com/tgiokas/BellNotifications/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterNotificationRoutes registers the notification endpoints.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/notifications")
	{
		// The SSE stream authenticates with its own short-lived token
		// because EventSource cannot send an Authorization header.
		api.GET("/stream", hb.StreamEventsHandler)
		api.GET("/vapid-public-key", hb.GetVapidPublicKeyHandler)

		// Protected routes (Require Authentication)
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("", hb.ListNotificationsHandler)
		api.GET("/unread-count", hb.GetUnreadCountHandler)
		api.POST("", hb.CreateNotificationHandler)
		api.POST("/:id/read", hb.MarkAsReadHandler)
		api.POST("/:id/dismiss", hb.DismissHandler)
		api.POST("/read-all", hb.MarkAllAsReadHandler)
		api.POST("/stream-token", hb.StreamTokenHandler)
		api.POST("/push-subscription", hb.SavePushSubscriptionHandler)
		api.DELETE("/push-subscription", hb.DeletePushSubscriptionHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterNotificationRoutes(r, hb)
	RegisterHealthRoute(r)
}
