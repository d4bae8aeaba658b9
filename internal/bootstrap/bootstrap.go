// Package bootstrap wires configuration, telemetry, storage and the
// reconciliation services shared by the server and the one-shot sync command.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/billsync/backend/internal/application/reconciliation"
	"github.com/billsync/backend/internal/domain/shared"
	"github.com/billsync/backend/internal/infrastructure/cache"
	"github.com/billsync/backend/internal/infrastructure/config"
	"github.com/billsync/backend/internal/infrastructure/gateway"
	"github.com/billsync/backend/internal/infrastructure/logger"
	"github.com/billsync/backend/internal/infrastructure/persistence"
	"github.com/billsync/backend/internal/infrastructure/telemetry"
)

// MeterName is the instrumentation scope of the service's own instruments
const MeterName = "github.com/billsync/backend"

// App holds every long-lived component of a process
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Telemetry *telemetry.Providers
	Database  *persistence.Database
	Tracker   shared.DeliveryTracker
	Meter     metric.Meter
	Engine    *reconciliation.Engine
	Webhooks  *reconciliation.WebhookService
	Sync      *reconciliation.SyncService

	poolMetrics metric.Registration
}

// New builds the application from cfg. On error every component created so
// far is released.
func New(ctx context.Context, cfg *config.Config) (app *App, err error) {
	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	app = &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
		}
	}()

	app.Telemetry, err = telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		return app, fmt.Errorf("initialize telemetry: %w", err)
	}
	if app.Telemetry.Logs.IsEnabled() {
		app.Logger = logger.WithCore(log, app.Telemetry.Logs.ZapCore(logger.ParseLevel(cfg.Log.Level)))
		log = app.Logger
	}
	app.Meter = app.Telemetry.Meter.Meter(MeterName)

	app.Database, err = persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return app, err
	}
	if err = telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry), log).Register(app.Database.DB); err != nil {
		return app, fmt.Errorf("register database tracing: %w", err)
	}
	sqlDB, err := app.Database.DB.DB()
	if err != nil {
		return app, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	if app.poolMetrics, err = telemetry.RegisterDBPoolMetrics(app.Meter, sqlDB); err != nil {
		return app, fmt.Errorf("register pool metrics: %w", err)
	}

	metrics, err := telemetry.NewReconciliationMetrics(app.Meter)
	if err != nil {
		return app, fmt.Errorf("create reconciliation metrics: %w", err)
	}

	app.Tracker, err = cache.NewDeliveryTrackerFactory(cfg.Redis, cache.WithLogger(log)).CreateTracker()
	if err != nil {
		return app, fmt.Errorf("create delivery tracker: %w", err)
	}

	gatewayCfg := GatewayConfig(cfg.Gateway)
	if err = gatewayCfg.Validate(); err != nil {
		return app, fmt.Errorf("invalid gateway configuration: %w", err)
	}
	mapper := gateway.NewMapper(cfg.Gateway.Location())
	audit := persistence.NewGormAuditSink(app.Database.DB)

	app.Engine = reconciliation.NewEngine(reconciliation.EngineConfig{
		Contacts:           persistence.NewGormContactRepository(app.Database.DB),
		AutoCreateContacts: cfg.Reconciliation.AutoCreateContacts,
		MaxConflictRetries: cfg.Reconciliation.MaxConflictRetries,
		Logger:             log.Named("engine"),
		Metrics:            metrics,
	})

	app.Webhooks = reconciliation.NewWebhookService(reconciliation.WebhookServiceConfig{
		Engine:  app.Engine,
		Mapper:  mapper,
		Audit:   audit,
		Tracker: app.Tracker,
		Tracking: shared.DeliveryTrackingConfig{
			TTL:     cfg.Webhook.DeliveryTTL,
			Enabled: cfg.Webhook.TrackDeliveries,
		},
		Provider: gatewayCfg.Provider,
		Logger:   log.Named("webhook"),
		Metrics:  metrics,
	})

	app.Sync = reconciliation.NewSyncService(reconciliation.SyncServiceConfig{
		Registry: persistence.NewGormTenantRegistry(app.Database.DB),
		Clients: reconciliation.GatewayClientFactory{
			Config:  gatewayCfg,
			Options: []gateway.ClientOption{gateway.WithHTTPClient(gatewayHTTPClient(gatewayCfg))},
		},
		Mapper:               mapper,
		Engine:               app.Engine,
		Audit:                audit,
		Provider:             gatewayCfg.Provider,
		PageSize:             gatewayCfg.PageSize,
		TenantTimeout:        cfg.Sync.TenantTimeout,
		RunTimeout:           cfg.Sync.RunTimeout,
		MaxConcurrentTenants: cfg.Sync.MaxConcurrentTenants,
		Logger:               log.Named("sync"),
		Metrics:              metrics,
	})

	return app, nil
}

// GatewayConfig converts the application settings into a gateway.Config
func GatewayConfig(cfg config.GatewayConfig) *gateway.Config {
	out := gateway.DefaultConfig()
	if cfg.Provider != "" {
		out.Provider = cfg.Provider
	}
	if cfg.LiveBaseURL != "" {
		out.LiveBaseURL = cfg.LiveBaseURL
	}
	if cfg.SandboxBaseURL != "" {
		out.SandboxBaseURL = cfg.SandboxBaseURL
	}
	if cfg.TimeoutSeconds > 0 {
		out.TimeoutSeconds = cfg.TimeoutSeconds
	}
	if cfg.PageSize > 0 {
		out.PageSize = cfg.PageSize
	}
	return out
}

// gatewayHTTPClient is shared by every tenant's client so connections are
// pooled; outbound calls get client spans.
func gatewayHTTPClient(cfg *gateway.Config) *http.Client {
	return &http.Client{
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Close releases every component in reverse order of creation
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.poolMetrics != nil {
		errs = append(errs, a.poolMetrics.Unregister())
	}
	if a.Tracker != nil {
		errs = append(errs, a.Tracker.Close())
	}
	if a.Database != nil {
		errs = append(errs, a.Database.Close())
	}
	if a.Telemetry != nil {
		errs = append(errs, a.Telemetry.Shutdown(ctx))
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
