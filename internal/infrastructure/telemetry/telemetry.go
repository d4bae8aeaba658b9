// Package telemetry wires OpenTelemetry traces, metrics and logs for the
// reconciliation service and provides the instruments it records.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"

	"github.com/billsync/backend/internal/infrastructure/config"
)

// ServiceVersion is reported on every exported signal
const ServiceVersion = "1.0.0"

// shutdownTimeout bounds the final flush of each provider
const shutdownTimeout = 10 * time.Second

// Exporter holds the OTLP collector settings shared by every signal
type Exporter struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
}

// newResource describes the running service
func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// Providers groups the three signal providers of a process
type Providers struct {
	Tracer *TracerProvider
	Meter  *MeterProvider
	Logs   *LoggerProvider
}

// Setup creates every provider from the application config. Disabled signals
// get no-op providers, so callers never branch on configuration.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Providers, error) {
	exp := Exporter{
		Endpoint:    cfg.CollectorEndpoint,
		Insecure:    cfg.Insecure,
		ServiceName: cfg.ServiceName,
	}

	tp, err := NewTracerProvider(ctx, TracingConfig{
		Enabled:       cfg.Enabled,
		SamplingRatio: cfg.SamplingRatio,
		Exporter:      exp,
	}, logger)
	if err != nil {
		return nil, err
	}

	mp, err := NewMeterProvider(ctx, MetricsConfig{
		Enabled:        cfg.Enabled && cfg.MetricsEnabled,
		ExportInterval: cfg.MetricsInterval,
		Exporter:       exp,
	}, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	lp, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:  cfg.Enabled && cfg.LogsEnabled,
		Exporter: exp,
	}, logger)
	if err != nil {
		_ = mp.Shutdown(ctx)
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return &Providers{Tracer: tp, Meter: mp, Logs: lp}, nil
}

// Shutdown flushes and stops every provider, logs last so that the other
// providers' shutdown messages are still exported.
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.Tracer.Shutdown(ctx),
		p.Meter.Shutdown(ctx),
		p.Logs.Shutdown(ctx),
	)
}

// shutdownSignal runs stop with a bounded context. A nil stop means the
// signal was never enabled.
func shutdownSignal(ctx context.Context, logger *zap.Logger, signal string, stop func(context.Context) error) error {
	if stop == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := stop(ctx); err != nil {
		logger.Error("Telemetry shutdown failed", zap.String("signal", signal), zap.Error(err))
		return fmt.Errorf("shutdown %s provider: %w", signal, err)
	}
	logger.Debug("Telemetry provider stopped", zap.String("signal", signal))
	return nil
}
