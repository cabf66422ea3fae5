// File: main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tgiokas/BellNotifications/config"
	"github.com/tgiokas/BellNotifications/database"
	notificationRepo "github.com/tgiokas/BellNotifications/database/repository/notification"
	subscriptionRepo "github.com/tgiokas/BellNotifications/database/repository/subscription"
	"github.com/tgiokas/BellNotifications/handlers"
	"github.com/tgiokas/BellNotifications/middleware"
	"github.com/tgiokas/BellNotifications/routes"
	"github.com/tgiokas/BellNotifications/services/ingest"
	"github.com/tgiokas/BellNotifications/services/notification"
	"github.com/tgiokas/BellNotifications/services/push"
	"github.com/tgiokas/BellNotifications/services/stream"
	"github.com/tgiokas/BellNotifications/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	notifRepo := notificationRepo.NewMongoNotificationRepo()
	subsRepo := subscriptionRepo.NewRedisSubscriptionRepo()

	// services.
	registry := stream.NewRegistry(logger)
	pushSender := push.NewWebPushSender(
		subsRepo,
		config.AppConfig.VapidPublicKey,
		config.AppConfig.VapidPrivateKey,
		config.AppConfig.VapidSubject,
		logger,
	)
	notificationService := &notification.DefaultNotificationService{
		Repo:      notifRepo,
		Broadcast: registry,
		Push:      pushSender,
		Logger:    logger,
	}

	// Kafka ingestion.
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	consumer, err := ingest.NewConsumer(
		config.KafkaBrokerList(),
		config.KafkaTopicList(),
		config.AppConfig.KafkaGroupID,
		config.AppConfig.KafkaOffsetReset,
		notificationService,
		logger,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to create kafka consumer: %v", err)
	}
	go consumer.Run(consumerCtx)

	// Assemble the handler bundle and register routes.
	handlerBundle := handlers.NewHandlerBundle(notificationService, registry, subsRepo)
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	stopConsumer()
	if err := consumer.Close(); err != nil {
		logger.Sugar().Warnf("main: failed to close kafka consumer: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
