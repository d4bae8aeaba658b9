package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingExporter keeps exported log records in memory
type recordingExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func enabledLoggerProvider(t *testing.T) (*LoggerProvider, *recordingExporter) {
	t.Helper()
	exporter := &recordingExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return &LoggerProvider{
		provider:    provider,
		logger:      zap.NewNop(),
		serviceName: "billsync-test",
	}, exporter
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := LogsConfig{
		Exporter: Exporter{Endpoint: "localhost:14317", ServiceName: "billsync-test", Insecure: true},
	}

	provider, err := NewLoggerProvider(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, provider.IsEnabled())
	assert.NoError(t, provider.Shutdown(ctx))
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestLoggerProvider_ShutdownStopsEnabledProvider(t *testing.T) {
	lp := &LoggerProvider{
		provider: sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(&recordingExporter{}))),
		logger:   zap.NewNop(),
	}

	assert.True(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestNewZapOTELCore_DisabledIsNop(t *testing.T) {
	disabled, err := NewLoggerProvider(context.Background(), LogsConfig{}, zap.NewNop())
	require.NoError(t, err)

	for _, lp := range []*LoggerProvider{nil, disabled} {
		core := NewZapOTELCore(ZapBridgeConfig{ServiceName: "billsync-test", LoggerProvider: lp})
		assert.False(t, core.Enabled(zapcore.ErrorLevel))
	}
}

func TestNewZapOTELCore_FiltersBelowLevel(t *testing.T) {
	lp, exporter := enabledLoggerProvider(t)
	core := lp.ZapCore(zapcore.WarnLevel)

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))

	// With keeps the filter
	child := core.With([]zapcore.Field{zap.String("tenant_id", "T1")})
	assert.False(t, child.Enabled(zapcore.InfoLevel))
	assert.True(t, child.Enabled(zapcore.ErrorLevel))

	logger := zap.New(core)
	logger.Info("contact resolved")
	logger.Warn("gateway fetch slow")
	assert.Equal(t, []string{"gateway fetch slow"}, exporter.bodies())
}

func TestNewZapOTELCore_DebugForwardsEverything(t *testing.T) {
	lp, exporter := enabledLoggerProvider(t)
	core := lp.ZapCore(zapcore.DebugLevel)

	_, isFilter := core.(*levelFilterCore)
	assert.False(t, isFilter)
	assert.True(t, core.Enabled(zapcore.DebugLevel))

	zap.New(core).Debug("SQL Query")
	assert.Equal(t, []string{"SQL Query"}, exporter.bodies())
}

func TestLevelFilterCore_Check(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core)

	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept too")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestZapCore_TeesWithConsoleCore(t *testing.T) {
	console, logs := observer.New(zapcore.InfoLevel)
	lp, exporter := enabledLoggerProvider(t)
	bridged := zap.New(zapcore.NewTee(console, lp.ZapCore(zapcore.InfoLevel)))

	bridged.Info("applied billing status", zap.String("tenant_id", "T1"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "T1", logs.All()[0].ContextMap()["tenant_id"])
	assert.Equal(t, []string{"applied billing status"}, exporter.bodies())
}
