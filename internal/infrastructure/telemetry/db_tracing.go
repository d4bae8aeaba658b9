package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/billsync/backend/internal/infrastructure/config"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // Include query variables in spans, never in production
	SlowQueryThresh time.Duration // Queries above it get a slow_query event
	DBSystem        string
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:         false,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingConfigFrom builds the tracing config from application telemetry settings
func DBTracingConfigFrom(cfg config.TelemetryConfig) DBTracingConfig {
	out := DefaultDBTracingConfig()
	out.Enabled = cfg.Enabled && cfg.DBTraceEnabled
	out.LogFullSQL = cfg.DBLogFullSQL
	if cfg.DBSlowQueryThresh > 0 {
		out.SlowQueryThresh = cfg.DBSlowQueryThresh
	}
	return out
}

// DBTracingPlugin registers otelgorm plus callbacks that annotate its spans
// with row counts and slow query events.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

// Register installs the plugin on db. It does nothing when tracing is disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

// registerCallbacks hooks every gorm operation. The after hook runs before
// otelgorm ends the span so the attributes land on it.
func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		callback interface {
			Register(name string, fn func(*gorm.DB)) error
		}
		fn   func(*gorm.DB)
		name string
	}{
		{cb.Create().Before("gorm:create"), markQueryStart, "before:create"},
		{cb.Create().After("gorm:create").Before("otel:after:create"), p.annotateSpan, "after:create"},
		{cb.Query().Before("gorm:query"), markQueryStart, "before:query"},
		{cb.Query().After("gorm:query").Before("otel:after:query"), p.annotateSpan, "after:query"},
		{cb.Update().Before("gorm:update"), markQueryStart, "before:update"},
		{cb.Update().After("gorm:update").Before("otel:after:update"), p.annotateSpan, "after:update"},
		{cb.Delete().Before("gorm:delete"), markQueryStart, "before:delete"},
		{cb.Delete().After("gorm:delete").Before("otel:after:delete"), p.annotateSpan, "after:delete"},
		{cb.Row().Before("gorm:row"), markQueryStart, "before:row"},
		{cb.Row().After("gorm:row").Before("otel:after:row"), p.annotateSpan, "after:row"},
		{cb.Raw().Before("gorm:raw"), markQueryStart, "before:raw"},
		{cb.Raw().After("gorm:raw").Before("otel:after:raw"), p.annotateSpan, "after:raw"},
	}

	for _, h := range hooks {
		if err := h.callback.Register("billsync_trace:"+h.name, h.fn); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = WithQueryStartTime(db.Statement.Context)
	}
}

// annotateSpan runs after each operation on the span otelgorm started.
func (p *DBTracingPlugin) annotateSpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}

type contextKey string

const queryStartTimeKey contextKey = "billsync_query_start_time"

// WithQueryStartTime returns a context carrying the current time as the query start.
func WithQueryStartTime(ctx context.Context) context.Context {
	return context.WithValue(ctx, queryStartTimeKey, time.Now())
}
