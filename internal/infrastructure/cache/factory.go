package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/billsync/backend/internal/domain/shared"
	"github.com/billsync/backend/internal/infrastructure/config"
)

// DeliveryTrackerFactory creates delivery trackers based on configuration
type DeliveryTrackerFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// DeliveryTrackerFactoryOption is a functional option for configuring the factory
type DeliveryTrackerFactoryOption func(*DeliveryTrackerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) DeliveryTrackerFactoryOption {
	return func(f *DeliveryTrackerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory tracker. Enabled by default.
func WithInMemoryFallback(allow bool) DeliveryTrackerFactoryOption {
	return func(f *DeliveryTrackerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewDeliveryTrackerFactory creates a new factory
func NewDeliveryTrackerFactory(cfg config.RedisConfig, opts ...DeliveryTrackerFactoryOption) *DeliveryTrackerFactory {
	f := &DeliveryTrackerFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateTracker returns a Redis tracker when Redis is enabled and reachable,
// otherwise an in-memory tracker if fallback is allowed.
func (f *DeliveryTrackerFactory) CreateTracker() (shared.DeliveryTracker, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("redis disabled, using in-memory delivery tracker")
		return NewInMemoryDeliveryTracker(), nil
	}

	tracker, err := NewRedisDeliveryTracker(RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using redis delivery tracker", zap.String("addr", f.redisConfig.Addr()))
		return tracker, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for delivery tracking but unavailable: %w", err)
	}

	f.logger.Warn("redis unavailable, falling back to in-memory delivery tracker; "+
		"duplicates across instances will not be flagged",
		zap.Error(err),
	)
	return NewInMemoryDeliveryTracker(), nil
}
