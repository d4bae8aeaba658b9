package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/billsync/backend/internal/domain/shared"
)

const defaultDeliveryKeyPrefix = "billsync:webhook:delivery:"

// RedisDeliveryTracker implements DeliveryTracker using Redis so that every
// service instance sees the same delivery history.
type RedisDeliveryTracker struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisDeliveryTracker connects to Redis and creates a tracker
func NewRedisDeliveryTracker(cfg RedisConfig) (*RedisDeliveryTracker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisDeliveryTrackerWithClient(client, ""), nil
}

// NewRedisDeliveryTrackerWithClient creates a tracker on an existing client
func NewRedisDeliveryTrackerWithClient(client redis.UniversalClient, keyPrefix string) *RedisDeliveryTracker {
	if keyPrefix == "" {
		keyPrefix = defaultDeliveryKeyPrefix
	}
	return &RedisDeliveryTracker{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkSeen marks a delivery key as seen with a TTL using SETNX.
// Returns true if the key was newly marked, false if it was already seen.
func (t *RedisDeliveryTracker) MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark delivery as seen: %w", err)
	}
	return ok, nil
}

// IsSeen checks if a delivery key has already been marked
func (t *RedisDeliveryTracker) IsSeen(ctx context.Context, key string) (bool, error) {
	exists, err := t.client.Exists(ctx, t.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check delivery: %w", err)
	}
	return exists > 0, nil
}

// Close closes the Redis client
func (t *RedisDeliveryTracker) Close() error {
	return t.client.Close()
}

var _ shared.DeliveryTracker = (*RedisDeliveryTracker)(nil)
