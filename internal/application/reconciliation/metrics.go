package reconciliation

import (
	"context"
	"time"
)

// Metrics receives reconciliation measurements. The telemetry package
// provides the OpenTelemetry implementation.
type Metrics interface {
	RecordOutcome(ctx context.Context, tenantID, source, outcome, reason string)
	RecordConflict(ctx context.Context, tenantID string)
	RecordMappingFailure(ctx context.Context, tenantID, source, kind string)
	RecordDuplicateDelivery(ctx context.Context, tenantID string)
	RecordAuditFailure(ctx context.Context, source string)
	RecordSyncTenant(ctx context.Context, tenantID, result string, fetched int)
	RecordSyncRun(ctx context.Context, duration time.Duration, tenants int, cancelled bool)
}

type noopMetrics struct{}

func (noopMetrics) RecordOutcome(context.Context, string, string, string, string) {}
func (noopMetrics) RecordConflict(context.Context, string)                        {}
func (noopMetrics) RecordMappingFailure(context.Context, string, string, string)  {}
func (noopMetrics) RecordDuplicateDelivery(context.Context, string)               {}
func (noopMetrics) RecordAuditFailure(context.Context, string)                    {}
func (noopMetrics) RecordSyncTenant(context.Context, string, string, int)         {}
func (noopMetrics) RecordSyncRun(context.Context, time.Duration, int, bool)       {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
