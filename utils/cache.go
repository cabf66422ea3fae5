// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"github.com/tgiokas/BellNotifications/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the Redis client backing the push subscription store.
var CacheClient *redis.Client

// InitCache initializes the Redis client (using DB from AppConfig).
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
}

// GetCacheClient returns the Redis client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}
