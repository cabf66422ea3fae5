package subscriptionRepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tgiokas/BellNotifications/models"
	"github.com/tgiokas/BellNotifications/utils"

	"github.com/go-redis/redis/v8"
)

const subscriptionKeyPrefix = "push_subscription:"

// RedisSubscriptionRepo implements SubscriptionRepository on Redis. A
// subscription is a small JSON blob living under one key per (tenant, user).
type RedisSubscriptionRepo struct {
	client *redis.Client
}

// NewRedisSubscriptionRepo creates a new instance of SubscriptionRepository
// using the shared Redis client.
func NewRedisSubscriptionRepo() SubscriptionRepository {
	return &RedisSubscriptionRepo{client: utils.GetCacheClient()}
}

// NewRedisSubscriptionRepoWithClient builds a repo around an explicit client.
func NewRedisSubscriptionRepoWithClient(client *redis.Client) SubscriptionRepository {
	return &RedisSubscriptionRepo{client: client}
}

func subscriptionKey(tenantID, userID string) string {
	if tenantID == "" {
		tenantID = "null"
	}
	return subscriptionKeyPrefix + tenantID + ":" + userID
}

// Save upserts the subscription for its (tenant, user) key.
func (r *RedisSubscriptionRepo) Save(ctx context.Context, sub models.PushSubscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal push subscription: %w", err)
	}
	if err := r.client.Set(ctx, subscriptionKey(sub.TenantID, sub.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save push subscription: %w", err)
	}
	return nil
}

// Get returns the stored subscription, or nil when none exists.
func (r *RedisSubscriptionRepo) Get(ctx context.Context, tenantID, userID string) (*models.PushSubscription, error) {
	data, err := r.client.Get(ctx, subscriptionKey(tenantID, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch push subscription: %w", err)
	}

	var sub models.PushSubscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal push subscription: %w", err)
	}
	return &sub, nil
}

// Delete removes the subscription; missing keys are ignored.
func (r *RedisSubscriptionRepo) Delete(ctx context.Context, tenantID, userID string) error {
	if err := r.client.Del(ctx, subscriptionKey(tenantID, userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return nil
}
