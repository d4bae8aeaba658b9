package reconciliation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/billsync/backend/internal/domain/billing"
	"github.com/billsync/backend/internal/infrastructure/gateway"
	"github.com/billsync/backend/internal/infrastructure/logger"
)

const (
	// DefaultTenantTimeout bounds one tenant's gateway fetch
	DefaultTenantTimeout = 30 * time.Second

	// ErrMsgCancelled is reported for tenants a cancelled run never reached
	ErrMsgCancelled = "cancelled"

	sourcePoll = string(billing.EventSourcePoll)
)

// Tenant results recorded in metrics
const (
	tenantResultOK        = "ok"
	tenantResultSkipped   = "skipped"
	tenantResultError     = "error"
	tenantResultCancelled = "cancelled"
)

// PaymentLister fetches one page of a tenant's payments
type PaymentLister interface {
	ListPayments(ctx context.Context, filter gateway.PaymentFilter) (*gateway.PaymentPage, error)
}

// ClientFactory builds the gateway client of one tenant
type ClientFactory interface {
	NewLister(tenant billing.Tenant) (PaymentLister, error)
}

// GatewayClientFactory builds gateway.Client instances
type GatewayClientFactory struct {
	Config  *gateway.Config
	Options []gateway.ClientOption
}

// NewLister creates a client for tenant
func (f GatewayClientFactory) NewLister(tenant billing.Tenant) (PaymentLister, error) {
	client, err := gateway.NewClient(f.Config, tenant, f.Options...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// SyncService runs the periodic poll over every active tenant
type SyncService struct {
	registry       billing.TenantRegistry
	clients        ClientFactory
	mapper         *gateway.Mapper
	engine         *Engine
	audit          billing.AuditSink
	provider       string
	pageSize       int
	tenantTimeout  time.Duration
	runTimeout     time.Duration
	maxConcurrency int
	logger         *zap.Logger
	metrics        Metrics
	tracer         trace.Tracer
}

// SyncServiceConfig contains configuration for SyncService
type SyncServiceConfig struct {
	Registry billing.TenantRegistry
	Clients  ClientFactory
	Mapper   *gateway.Mapper
	Engine   *Engine
	Audit    billing.AuditSink
	Provider string
	PageSize int
	// TenantTimeout bounds each tenant's gateway fetch
	TenantTimeout time.Duration
	// RunTimeout bounds the whole run; zero means no bound
	RunTimeout time.Duration
	// MaxConcurrentTenants above 1 processes tenants with a bounded worker pool
	MaxConcurrentTenants int
	Logger               *zap.Logger
	Metrics              Metrics
}

// NewSyncService creates a new SyncService
func NewSyncService(cfg SyncServiceConfig) *SyncService {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	provider := cfg.Provider
	if provider == "" {
		provider = gateway.DefaultProvider
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > gateway.MaxPageSize {
		pageSize = gateway.DefaultPageSize
	}
	tenantTimeout := cfg.TenantTimeout
	if tenantTimeout <= 0 {
		tenantTimeout = DefaultTenantTimeout
	}
	concurrency := cfg.MaxConcurrentTenants
	if concurrency < 1 {
		concurrency = 1
	}
	return &SyncService{
		registry:       cfg.Registry,
		clients:        cfg.Clients,
		mapper:         cfg.Mapper,
		engine:         cfg.Engine,
		audit:          cfg.Audit,
		provider:       provider,
		pageSize:       pageSize,
		tenantTimeout:  tenantTimeout,
		runTimeout:     cfg.RunTimeout,
		maxConcurrency: concurrency,
		logger:         log,
		metrics:        metricsOrNoop(cfg.Metrics),
		tracer:         otel.Tracer(tracerName),
	}
}

// Run polls every active tenant once. The tenant list is read a single time
// at the start; a registry failure is returned as *RegistryError. Every other
// failure stays inside its tenant's report entry.
func (s *SyncService) Run(ctx context.Context) (*SyncReport, error) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "reconciliation.SyncRun")
	defer span.End()

	log := logger.Enrich(ctx, s.logger)

	tenants, err := s.registry.ListActive(ctx)
	if err != nil {
		regErr := &RegistryError{Err: err}
		span.RecordError(regErr)
		span.SetStatus(codes.Error, regErr.Error())
		log.Error("periodic sync aborted", zap.Error(err))
		return nil, regErr
	}

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	log.Info("periodic sync started",
		zap.Int("tenants", len(tenants)),
		zap.Int("concurrency", s.maxConcurrency),
	)

	entries := s.runTenants(ctx, tenants)

	report := newSyncReport(entries)
	report.Cancelled = ctx.Err() != nil && report.hasCancelledEntries()

	span.SetAttributes(
		attribute.Int("sync.tenants", len(tenants)),
		attribute.Bool("sync.cancelled", report.Cancelled),
	)
	s.metrics.RecordSyncRun(ctx, time.Since(start), len(tenants), report.Cancelled)

	log.Info("periodic sync finished",
		zap.Int("processed_companies", report.ProcessedCompanies),
		zap.Bool("cancelled", report.Cancelled),
		zap.Duration("duration", time.Since(start)),
	)
	return report, nil
}

// runTenants processes tenants with at most maxConcurrency workers. Each
// worker writes only its own tenant's entry.
func (s *SyncService) runTenants(ctx context.Context, tenants []billing.Tenant) []TenantReport {
	entries := make([]TenantReport, len(tenants))
	if len(tenants) == 0 {
		return entries
	}

	workers := min(s.maxConcurrency, len(tenants))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					entries[i] = s.cancelledEntry(ctx, tenants[i].ID)
					continue
				}
				entries[i] = s.syncTenant(ctx, tenants[i])
			}
		}()
	}

feed:
	for i := range tenants {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(tenants); j++ {
				entries[j] = s.cancelledEntry(ctx, tenants[j].ID)
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return entries
}

// cancelledEntry reports a tenant the run never started
func (s *SyncService) cancelledEntry(ctx context.Context, tenantID string) TenantReport {
	s.metrics.RecordSyncTenant(ctx, tenantID, tenantResultCancelled, 0)
	return TenantReport{TenantID: tenantID, Error: ErrMsgCancelled}
}

// syncTenant fetches one page of outstanding payments for tenant and runs
// every item through the mapper and the engine.
func (s *SyncService) syncTenant(ctx context.Context, tenant billing.Tenant) TenantReport {
	ctx = logger.WithTenantID(ctx, tenant.ID)
	ctx, span := s.tracer.Start(ctx, "reconciliation.SyncTenant",
		trace.WithAttributes(attribute.String("tenant.id", tenant.ID)),
	)
	defer span.End()

	log := logger.Enrich(ctx, s.logger)
	entry := TenantReport{TenantID: tenant.ID}

	if !tenant.HasCredentials() {
		entry.Skipped = true
		log.Debug("skipped tenant without credentials")
		s.metrics.RecordSyncTenant(ctx, tenant.ID, tenantResultSkipped, 0)
		return entry
	}

	page, err := s.fetch(ctx, tenant)
	if err != nil {
		entry.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("tenant fetch failed", zap.Error(err))
		s.metrics.RecordSyncTenant(ctx, tenant.ID, tenantResultError, 0)
		return entry
	}
	entry.Fetched = len(page.Payments)

	for _, item := range page.Payments {
		if ctx.Err() != nil {
			entry.Error = ErrMsgCancelled
			break
		}
		s.processItem(ctx, tenant.ID, item, page.ObservedAt, &entry, log)
	}

	result := tenantResultOK
	if entry.Error != "" {
		result = tenantResultCancelled
	}
	s.metrics.RecordSyncTenant(ctx, tenant.ID, result, entry.Fetched)
	span.SetAttributes(
		attribute.Int("sync.fetched", entry.Fetched),
		attribute.Int("sync.processed", entry.Processed),
		attribute.Int("sync.overdue_found", entry.OverdueFound),
	)

	log.Info("tenant synced",
		zap.Int("fetched", entry.Fetched),
		zap.Int("processed", entry.Processed),
		zap.Int("overdue_found", entry.OverdueFound),
		zap.Int("mapping_failures", entry.MappingFailures),
		zap.Int("rejected", entry.Rejected),
		zap.Int("engine_errors", entry.EngineErrors),
	)
	return entry
}

// fetch lists one page under the tenant timeout. A timeout surfaces as an
// unavailable provider error from the client.
func (s *SyncService) fetch(ctx context.Context, tenant billing.Tenant) (*gateway.PaymentPage, error) {
	lister, err := s.clients.NewLister(tenant)
	if err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.tenantTimeout)
	defer cancel()

	return lister.ListPayments(fetchCtx, gateway.PaymentFilter{
		Statuses: gateway.DefaultSyncStatuses,
		Limit:    s.pageSize,
	})
}

func (s *SyncService) processItem(ctx context.Context, tenantID string, item gateway.PaymentPayload, observedAt time.Time, entry *TenantReport, log *zap.Logger) {
	payload := []byte(item.Raw)
	label := gateway.PollLabel(item.Status)

	event, err := s.mapper.MapPaymentItem(tenantID, item, observedAt)
	if err != nil {
		entry.MappingFailures++
		kind := "UNMAPPABLE"
		var mappingErr *billing.MappingError
		if errors.As(err, &mappingErr) {
			kind = mappingErr.Kind.String()
		}
		log.Warn("skipped unmappable payment", zap.String("payment_id", item.ID), zap.String("kind", kind), zap.Error(err))
		s.metrics.RecordMappingFailure(ctx, tenantID, sourcePoll, kind)
		s.appendAudit(ctx, label, billing.AuditOutcomeFailure, tenantID, kind, payload)
		return
	}

	if event.Status == billing.PaymentStatusOverdue {
		entry.OverdueFound++
	}

	outcome, err := s.engine.Reconcile(ctx, event)
	if err != nil {
		entry.EngineErrors++
		log.Error("failed to reconcile payment", zap.String("payment_id", item.ID), zap.Error(err))
		s.appendAudit(ctx, event.Label, billing.AuditOutcomeFailure, tenantID, ReasonEngineError, payload)
		return
	}

	if outcome.Applied {
		entry.Processed++
	} else {
		entry.Rejected++
	}
	s.appendAudit(ctx, event.Label, billing.AuditOutcomeSuccess, tenantID, outcome.Reason.String(), payload)
}

func (s *SyncService) appendAudit(ctx context.Context, label string, outcome billing.AuditOutcome, tenantID, reason string, payload []byte) {
	record := billing.NewAuditRecord(s.provider, label, outcome, tenantID, reason, payload)
	if err := s.audit.Append(ctx, record); err != nil {
		s.metrics.RecordAuditFailure(ctx, sourcePoll)
		logger.Enrich(ctx, s.logger).Error("failed to append audit record",
			zap.String("outcome", outcome.String()),
			zap.Error(err),
		)
	}
}
