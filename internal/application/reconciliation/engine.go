package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/billsync/backend/internal/domain/billing"
	"github.com/billsync/backend/internal/domain/shared"
	"github.com/billsync/backend/internal/infrastructure/logger"
)

const (
	tracerName = "github.com/billsync/backend/internal/application/reconciliation"

	// DefaultMaxConflictRetries bounds how often a lost race is retried
	DefaultMaxConflictRetries = 5

	// emailMatchLimit is 2 so that an ambiguous email can be told apart from a unique one
	emailMatchLimit = 2
)

// Outcome is the business result of reconciling one event. A rejection is
// not an error.
type Outcome struct {
	Applied   bool
	Reason    billing.RejectReason
	ContactID uuid.UUID
	Status    billing.BillingStatus
	// Created is true when the contact was first seen through this event
	Created bool
	// Attempts counts read-decide-write rounds, more than one after a lost race
	Attempts int
}

// OutcomeLabel returns "applied" or "rejected"
func (o Outcome) OutcomeLabel() string {
	if o.Applied {
		return "applied"
	}
	return "rejected"
}

// EngineConfig contains configuration for Engine
type EngineConfig struct {
	Contacts billing.ContactRepository
	// AutoCreateContacts creates a first-seen contact for an unknown customer
	// instead of rejecting the event as unresolved
	AutoCreateContacts bool
	MaxConflictRetries int
	Logger             *zap.Logger
	Metrics            Metrics
}

// Engine resolves the contact an event refers to and applies the pure
// billing.Decide result with an optimistic conditional write. It is the only
// writer of contact status.
type Engine struct {
	contacts   billing.ContactRepository
	autoCreate bool
	maxRetries int
	logger     *zap.Logger
	metrics    Metrics
	tracer     trace.Tracer
}

// NewEngine creates a new Engine
func NewEngine(cfg EngineConfig) *Engine {
	maxRetries := cfg.MaxConflictRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxConflictRetries
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		contacts:   cfg.Contacts,
		autoCreate: cfg.AutoCreateContacts,
		maxRetries: maxRetries,
		logger:     log,
		metrics:    metricsOrNoop(cfg.Metrics),
		tracer:     otel.Tracer(tracerName),
	}
}

// Reconcile applies event to the contact it refers to. It returns an error
// only for infrastructure failures, including running out of conflict
// retries; every business outcome is reported through Outcome.
func (e *Engine) Reconcile(ctx context.Context, event billing.PaymentEvent) (Outcome, error) {
	ctx, span := e.tracer.Start(ctx, "reconciliation.Reconcile",
		trace.WithAttributes(
			attribute.String("tenant.id", event.TenantID),
			attribute.String("payment.id", event.PaymentID),
			attribute.String("payment.status", event.Status.String()),
			attribute.String("event.source", string(event.Source)),
		),
	)
	defer span.End()

	outcome, err := e.reconcile(ctx, normalizeEvent(event))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return outcome, err
	}

	span.SetAttributes(
		attribute.Bool("reconciliation.applied", outcome.Applied),
		attribute.String("reconciliation.reason", outcome.Reason.String()),
		attribute.Int("reconciliation.attempts", outcome.Attempts),
	)
	e.metrics.RecordOutcome(ctx, event.TenantID, string(event.Source), outcome.OutcomeLabel(), outcome.Reason.String())
	return outcome, nil
}

func (e *Engine) reconcile(ctx context.Context, event billing.PaymentEvent) (Outcome, error) {
	log := logger.Enrich(ctx, e.logger).With(
		zap.String("tenant_id", event.TenantID),
		zap.String("payment_id", event.PaymentID),
		zap.String("customer_id", event.CustomerID),
		zap.String("source", string(event.Source)),
	)

	// checked before resolution so an unknown status never creates a contact
	if _, ok := event.Status.TargetBillingStatus(); !ok {
		log.Info("rejected event with unknown status", zap.String("status", event.Status.String()))
		return Outcome{Reason: billing.RejectReasonUnknownStatus, Attempts: 1}, nil
	}

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Outcome{Attempts: attempt - 1}, err
		}

		contact, created, err := e.resolve(ctx, event)
		if errors.Is(err, shared.ErrAlreadyExists) {
			// another writer created or linked the same customer first
			e.metrics.RecordConflict(ctx, event.TenantID)
			log.Debug("contact creation raced, retrying", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return Outcome{Attempts: attempt}, fmt.Errorf("resolve contact: %w", err)
		}
		if contact == nil {
			log.Info("rejected event for unresolved customer")
			return Outcome{Reason: billing.RejectReasonUnresolvedCustomer, Attempts: attempt}, nil
		}

		decision := billing.Decide(*contact, event)
		if !decision.Applied {
			log.Debug("rejected event",
				zap.String("reason", decision.Reason.String()),
				zap.String("current_status", contact.BillingStatus.String()),
				zap.Time("status_updated_at", contact.StatusUpdatedAt),
				zap.Time("event_time", event.EventTime),
			)
			return Outcome{
				Reason:    decision.Reason,
				ContactID: contact.ID,
				Status:    contact.BillingStatus,
				Created:   created,
				Attempts:  attempt,
			}, nil
		}

		next := decision.Next
		err = e.contacts.UpdateStatusIfVersion(ctx, &next)
		if errors.Is(err, shared.ErrConcurrencyConflict) || errors.Is(err, shared.ErrAlreadyExists) {
			e.metrics.RecordConflict(ctx, event.TenantID)
			log.Debug("conditional update lost race, retrying", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return Outcome{Attempts: attempt}, fmt.Errorf("update contact %s: %w", contact.ID, err)
		}

		log.Info("applied billing status",
			zap.String("contact_id", next.ID.String()),
			zap.String("from", contact.BillingStatus.String()),
			zap.String("to", next.BillingStatus.String()),
			zap.Time("event_time", event.EventTime),
		)
		return Outcome{
			Applied:   true,
			ContactID: next.ID,
			Status:    next.BillingStatus,
			Created:   created,
			Attempts:  attempt,
		}, nil
	}

	log.Warn("conflict retries exhausted", zap.Int("max_retries", e.maxRetries))
	return Outcome{Attempts: e.maxRetries}, fmt.Errorf("%w after %d attempts", ErrConflictRetriesExhausted, e.maxRetries)
}

// resolve finds the contact for event: by external customer id, then by a
// unique email match within the tenant, then by creating a first-seen contact
// when auto-creation is enabled. A nil contact means unresolved. An email
// match is linked in memory and persisted by the conditional write.
func (e *Engine) resolve(ctx context.Context, event billing.PaymentEvent) (*billing.Contact, bool, error) {
	contact, err := e.contacts.FindByExternalID(ctx, event.TenantID, event.CustomerID)
	if err == nil {
		return contact, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	if event.CustomerEmail != "" {
		matches, err := e.contacts.FindByEmail(ctx, event.TenantID, event.CustomerEmail, emailMatchLimit)
		if err != nil {
			return nil, false, err
		}
		// a contact already linked to another gateway customer is not this customer
		if len(matches) == 1 && !matches[0].HasExternalCustomerID() {
			match := matches[0]
			match.LinkExternalCustomer(event.CustomerID)
			return &match, false, nil
		}
	}

	if !e.autoCreate {
		return nil, false, nil
	}

	contact, err = billing.NewFirstSeenContact(event.TenantID, event.CustomerID, event.CustomerEmail)
	if err != nil {
		return nil, false, err
	}
	if err := e.contacts.Create(ctx, contact); err != nil {
		return nil, false, err
	}
	return contact, true, nil
}

// normalizeEvent stores event times in UTC at the storage precision so that
// comparisons against persisted times are exact.
func normalizeEvent(event billing.PaymentEvent) billing.PaymentEvent {
	event.EventTime = event.EventTime.UTC().Truncate(time.Microsecond)
	return event
}
