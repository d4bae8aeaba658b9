package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when an instrument set is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// ReconciliationMetrics records webhook, sync and engine activity.
type ReconciliationMetrics struct {
	eventsTotal          *Counter
	conflictsTotal       *Counter
	mappingFailuresTotal *Counter
	duplicatesTotal      *Counter
	auditFailuresTotal   *Counter
	syncTenantsTotal     *Counter
	syncFetched          *Histogram
	syncRunDuration      *Histogram
	syncRunsTotal        *Counter
}

// NewReconciliationMetrics creates the reconciliation instruments on meter.
func NewReconciliationMetrics(meter metric.Meter) (*ReconciliationMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &ReconciliationMetrics{}
	var err error

	counters := []struct {
		dst         **Counter
		name        string
		description string
	}{
		{&m.eventsTotal, "reconciliation_events_total", "Payment events reconciled, by outcome and reason"},
		{&m.conflictsTotal, "reconciliation_conflicts_total", "Conditional writes that lost a race and were retried"},
		{&m.mappingFailuresTotal, "reconciliation_mapping_failures_total", "Gateway payloads that could not be mapped"},
		{&m.duplicatesTotal, "webhook_duplicate_deliveries_total", "Webhook deliveries seen before"},
		{&m.auditFailuresTotal, "audit_append_failures_total", "Audit records that could not be written"},
		{&m.syncTenantsTotal, "sync_tenants_total", "Tenants handled by periodic sync, by result"},
		{&m.syncRunsTotal, "sync_runs_total", "Completed periodic sync runs"},
	}
	for _, c := range counters {
		if *c.dst, err = NewCounter(meter, c.name, c.description, "1"); err != nil {
			return nil, err
		}
	}

	m.syncFetched, err = NewHistogram(meter, HistogramOpts{
		Name:        "sync_tenant_fetched_payments",
		Description: "Payments fetched per tenant per sync run",
		Unit:        "1",
		Boundaries:  FetchSizeBuckets,
	})
	if err != nil {
		return nil, err
	}

	m.syncRunDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "sync_run_duration_seconds",
		Description: "Wall time of a periodic sync run",
		Unit:        "s",
		Boundaries:  SyncRunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordOutcome counts one reconciled event
func (m *ReconciliationMetrics) RecordOutcome(ctx context.Context, tenantID, source, outcome, reason string) {
	m.eventsTotal.Inc(ctx,
		AttrTenantID.String(tenantID),
		AttrSource.String(source),
		AttrOutcome.String(outcome),
		AttrReason.String(reason),
	)
}

// RecordConflict counts one lost conditional write
func (m *ReconciliationMetrics) RecordConflict(ctx context.Context, tenantID string) {
	m.conflictsTotal.Inc(ctx, AttrTenantID.String(tenantID))
}

// RecordMappingFailure counts one unmappable payload
func (m *ReconciliationMetrics) RecordMappingFailure(ctx context.Context, tenantID, source, kind string) {
	m.mappingFailuresTotal.Inc(ctx,
		AttrTenantID.String(tenantID),
		AttrSource.String(source),
		AttrMappingError.String(kind),
	)
}

// RecordDuplicateDelivery counts one repeated webhook delivery
func (m *ReconciliationMetrics) RecordDuplicateDelivery(ctx context.Context, tenantID string) {
	m.duplicatesTotal.Inc(ctx, AttrTenantID.String(tenantID))
}

// RecordAuditFailure counts one failed audit append
func (m *ReconciliationMetrics) RecordAuditFailure(ctx context.Context, source string) {
	m.auditFailuresTotal.Inc(ctx, AttrSource.String(source))
}

// RecordSyncTenant records one tenant's sync result and fetch size
func (m *ReconciliationMetrics) RecordSyncTenant(ctx context.Context, tenantID, result string, fetched int) {
	attrs := []attribute.KeyValue{AttrTenantID.String(tenantID), AttrResult.String(result)}
	m.syncTenantsTotal.Inc(ctx, attrs...)
	if result == "ok" {
		m.syncFetched.Record(ctx, float64(fetched), AttrTenantID.String(tenantID))
	}
}

// RecordSyncRun records a finished run
func (m *ReconciliationMetrics) RecordSyncRun(ctx context.Context, duration time.Duration, tenants int, cancelled bool) {
	m.syncRunsTotal.Inc(ctx, AttrCancelled.Bool(cancelled))
	m.syncRunDuration.RecordDuration(ctx, duration,
		AttrCancelled.Bool(cancelled),
		attribute.Int("tenants", tenants),
	)
}
