package telemetry_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/billsync/backend/internal/infrastructure/telemetry"
)

type fixedStats sql.DBStats

func (s fixedStats) Stats() sql.DBStats { return sql.DBStats(s) }

func TestRegisterDBPoolMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.RegisterDBPoolMetrics(nil, fixedStats{})
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestRegisterDBPoolMetrics_ObservesStats(t *testing.T) {
	reader, provider := newManualMeter(t)

	stats := fixedStats{
		MaxOpenConnections: 25,
		InUse:              3,
		Idle:               2,
		WaitCount:          7,
		WaitDuration:       1500 * time.Millisecond,
	}
	reg, err := telemetry.RegisterDBPoolMetrics(provider.Meter("billsync"), stats)
	require.NoError(t, err)
	defer func() { _ = reg.Unregister() }()

	rm := collect(t, reader)

	conns, ok := findMetric(rm, "db_pool_connections")
	require.True(t, ok)
	gauge := conns.Data.(metricdata.Gauge[int64])
	byState := map[string]int64{}
	for _, dp := range gauge.DataPoints {
		state, _ := dp.Attributes.Value(telemetry.AttrDBPoolState)
		byState[state.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"in_use": 3, "idle": 2}, byState)

	maxOpen, ok := findMetric(rm, "db_pool_max_open_connections")
	require.True(t, ok)
	assert.Equal(t, int64(25), maxOpen.Data.(metricdata.Gauge[int64]).DataPoints[0].Value)

	assert.Equal(t, int64(7), sumFor(t, rm, "db_pool_wait_count"))

	waited, ok := findMetric(rm, "db_pool_wait_duration_seconds")
	require.True(t, ok)
	assert.InDelta(t, 1.5, waited.Data.(metricdata.Sum[float64]).DataPoints[0].Value, 1e-9)
}
