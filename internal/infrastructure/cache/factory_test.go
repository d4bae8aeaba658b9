package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/billsync/backend/internal/infrastructure/config"
)

// port 1 is reserved and never has a listener in test environments
func unreachableRedis() config.RedisConfig {
	return config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}
}

func TestDeliveryTrackerFactory_RedisDisabled(t *testing.T) {
	factory := NewDeliveryTrackerFactory(config.RedisConfig{Enabled: false})

	tracker, err := factory.CreateTracker()
	require.NoError(t, err)
	defer tracker.Close()

	assert.IsType(t, &InMemoryDeliveryTracker{}, tracker)
}

func TestDeliveryTrackerFactory_FallsBackWhenRedisUnreachable(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	factory := NewDeliveryTrackerFactory(unreachableRedis(), WithLogger(zap.New(core)))

	tracker, err := factory.CreateTracker()
	require.NoError(t, err)
	defer tracker.Close()

	assert.IsType(t, &InMemoryDeliveryTracker{}, tracker)
	assert.Equal(t, 1, logs.Len())
}

func TestDeliveryTrackerFactory_NoFallback(t *testing.T) {
	factory := NewDeliveryTrackerFactory(unreachableRedis(), WithInMemoryFallback(false))

	tracker, err := factory.CreateTracker()
	assert.Nil(t, tracker)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis required for delivery tracking")
}
