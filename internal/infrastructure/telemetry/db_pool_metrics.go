package telemetry

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// PoolStatser reports connection pool statistics. *sql.DB implements it.
type PoolStatser interface {
	Stats() sql.DBStats
}

// RegisterDBPoolMetrics exports the pool statistics of db as observable
// instruments read at collection time. The returned registration must be
// unregistered before db is closed.
func RegisterDBPoolMetrics(meter metric.Meter, db PoolStatser) (metric.Registration, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	connections, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Database connections by state"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections: %w", err)
	}
	maxOpen, err := meter.Int64ObservableGauge("db_pool_max_open_connections",
		metric.WithDescription("Configured maximum open connections"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_max_open_connections: %w", err)
	}
	waitCount, err := meter.Int64ObservableCounter("db_pool_wait_count",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter db_pool_wait_count: %w", err)
	}
	waitDuration, err := meter.Float64ObservableCounter("db_pool_wait_duration_seconds",
		metric.WithDescription("Total time blocked waiting for a connection"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter db_pool_wait_duration_seconds: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := db.Stats()
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(AttrDBPoolState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(AttrDBPoolState.String("idle")))
		o.ObserveInt64(maxOpen, int64(stats.MaxOpenConnections))
		o.ObserveInt64(waitCount, stats.WaitCount)
		o.ObserveFloat64(waitDuration, stats.WaitDuration.Seconds())
		return nil
	}, connections, maxOpen, waitCount, waitDuration)
}
