package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/billsync/backend/internal/domain/billing"
	"github.com/billsync/backend/internal/domain/shared"
	"github.com/billsync/backend/internal/infrastructure/gateway"
	"github.com/billsync/backend/internal/infrastructure/logger"
)

// Audit reasons for failures that are not rejections or mapping errors
const (
	ReasonMalformedPayload = "MALFORMED_PAYLOAD"
	ReasonInvalidPayload   = "INVALID_PAYLOAD"
	ReasonEngineError      = "ENGINE_ERROR"
)

const sourceWebhook = string(billing.EventSourceWebhook)

// WebhookService handles one gateway payment notification per call
type WebhookService struct {
	engine   *Engine
	mapper   *gateway.Mapper
	audit    billing.AuditSink
	tracker  shared.DeliveryTracker
	tracking shared.DeliveryTrackingConfig
	provider string
	logger   *zap.Logger
	metrics  Metrics
	now      func() time.Time
}

// WebhookServiceConfig contains configuration for WebhookService
type WebhookServiceConfig struct {
	Engine   *Engine
	Mapper   *gateway.Mapper
	Audit    billing.AuditSink
	Tracker  shared.DeliveryTracker // optional
	Tracking shared.DeliveryTrackingConfig
	Provider string
	Logger   *zap.Logger
	Metrics  Metrics
	Now      func() time.Time
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(cfg WebhookServiceConfig) *WebhookService {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	provider := cfg.Provider
	if provider == "" {
		provider = gateway.DefaultProvider
	}
	return &WebhookService{
		engine:   cfg.Engine,
		mapper:   cfg.Mapper,
		audit:    cfg.Audit,
		tracker:  cfg.Tracker,
		tracking: cfg.Tracking,
		provider: provider,
		logger:   log,
		metrics:  metricsOrNoop(cfg.Metrics),
		now:      now,
	}
}

// WebhookResult describes how a delivery was handled. Received is true for
// every acknowledged delivery, including rejections and mapping failures.
type WebhookResult struct {
	Received     bool                     `json:"received"`
	Duplicate    bool                     `json:"duplicate,omitempty"`
	Applied      bool                     `json:"applied,omitempty"`
	Reason       string                   `json:"reason,omitempty"`
	MappingError billing.MappingErrorKind `json:"mapping_error,omitempty"`
}

// Handle processes one webhook body for tenantID. It returns a
// *ValidationError for requests that must be refused, and a plain error when
// the engine failed; any other outcome is acknowledged. Every call past the
// tenant check writes exactly one audit record.
func (s *WebhookService) Handle(ctx context.Context, tenantID string, body []byte) (*WebhookResult, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, &ValidationError{Message: MsgMissingTenant}
	}

	ctx = logger.WithTenantID(ctx, tenantID)
	log := logger.Enrich(ctx, s.logger)

	payload, err := s.mapper.DecodeWebhook(body)
	if err != nil {
		label, reason := "", ReasonMalformedPayload
		if errors.Is(err, gateway.ErrInvalidPayload) {
			reason = ReasonInvalidPayload
		}
		if payload != nil {
			label = payload.Event
		}
		log.Warn("rejected webhook payload", zap.String("reason", reason), zap.Error(err))
		s.appendAudit(ctx, label, billing.AuditOutcomeFailure, tenantID, reason, body)
		return nil, &ValidationError{Message: err.Error(), Err: err}
	}

	log = log.With(zap.String("event", payload.Event), zap.String("payment_id", payload.Payment.ID))

	event, err := s.mapper.MapWebhook(tenantID, payload, s.now())
	if err != nil {
		mappingErr, ok := billing.AsMappingError(err)
		if !ok {
			return nil, fmt.Errorf("map webhook: %w", err)
		}
		log.Warn("skipped unmappable webhook", zap.String("kind", mappingErr.Kind.String()), zap.Error(err))
		s.metrics.RecordMappingFailure(ctx, tenantID, sourceWebhook, mappingErr.Kind.String())
		s.appendAudit(ctx, payload.Event, billing.AuditOutcomeFailure, tenantID, mappingErr.Kind.String(), body)
		return &WebhookResult{Received: true, MappingError: mappingErr.Kind}, nil
	}

	duplicate := s.markDelivery(ctx, event, log)
	if duplicate {
		// the first delivery already carried this information
		reason := billing.RejectReasonStale.String()
		s.metrics.RecordOutcome(ctx, tenantID, sourceWebhook, "rejected", reason)
		s.appendAudit(ctx, event.Label, billing.AuditOutcomeSuccess, tenantID, reason, body)
		log.Info("webhook processed", zap.Bool("applied", false), zap.String("reason", reason), zap.Bool("duplicate", true))
		return &WebhookResult{Received: true, Duplicate: true, Reason: reason}, nil
	}

	outcome, err := s.engine.Reconcile(ctx, event)
	if err != nil {
		log.Error("failed to reconcile webhook event", zap.Error(err))
		s.appendAudit(ctx, event.Label, billing.AuditOutcomeFailure, tenantID, ReasonEngineError, body)
		return nil, fmt.Errorf("process payment %s: %w", event.PaymentID, err)
	}

	s.appendAudit(ctx, event.Label, billing.AuditOutcomeSuccess, tenantID, outcome.Reason.String(), body)

	log.Info("webhook processed",
		zap.Bool("applied", outcome.Applied),
		zap.String("reason", outcome.Reason.String()),
	)

	return &WebhookResult{
		Received: true,
		Applied:  outcome.Applied,
		Reason:   outcome.Reason.String(),
	}, nil
}

// markDelivery records the delivery key and reports whether it was seen
// before. A tracker failure counts as a first delivery.
func (s *WebhookService) markDelivery(ctx context.Context, event billing.PaymentEvent, log *zap.Logger) bool {
	if s.tracker == nil || !s.tracking.Enabled {
		return false
	}
	isNew, err := s.tracker.MarkSeen(ctx, event.DeliveryKey(), s.tracking.TTL)
	if err != nil {
		log.Warn("failed to track webhook delivery", zap.Error(err))
		return false
	}
	if !isNew {
		s.metrics.RecordDuplicateDelivery(ctx, event.TenantID)
		log.Info("duplicate webhook delivery", zap.String("delivery_key", event.DeliveryKey()))
	}
	return !isNew
}

func (s *WebhookService) appendAudit(ctx context.Context, label string, outcome billing.AuditOutcome, tenantID, reason string, payload []byte) {
	record := billing.NewAuditRecord(s.provider, label, outcome, tenantID, reason, payload)
	if err := s.audit.Append(ctx, record); err != nil {
		s.metrics.RecordAuditFailure(ctx, sourceWebhook)
		logger.Enrich(ctx, s.logger).Error("failed to append audit record",
			zap.String("outcome", outcome.String()),
			zap.Error(err),
		)
	}
}
