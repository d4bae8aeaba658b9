package billing

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxAuditPayloadBytes caps the serialized payload kept on an audit record
const MaxAuditPayloadBytes = 4096

// AuditOutcome is the result recorded for one processing attempt
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
)

// String returns the string representation of AuditOutcome
func (o AuditOutcome) String() string {
	return string(o)
}

// AuditRecord is an append-only record of one processed event
type AuditRecord struct {
	ID         uuid.UUID
	Provider   string
	EventLabel string
	Outcome    AuditOutcome
	Reason     string
	TenantID   string
	Payload    string
	CreatedAt  time.Time
}

// NewAuditRecord creates an audit record, truncating payload to MaxAuditPayloadBytes
func NewAuditRecord(provider, eventLabel string, outcome AuditOutcome, tenantID, reason string, payload []byte) *AuditRecord {
	return &AuditRecord{
		ID:         uuid.New(),
		Provider:   provider,
		EventLabel: eventLabel,
		Outcome:    outcome,
		Reason:     reason,
		TenantID:   tenantID,
		Payload:    TruncatePayload(payload, MaxAuditPayloadBytes),
		CreatedAt:  time.Now(),
	}
}

// TruncatePayload returns at most limit bytes of payload without splitting a UTF-8 sequence
func TruncatePayload(payload []byte, limit int) string {
	if len(payload) <= limit {
		return string(payload)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(payload[cut]) {
		cut--
	}
	return string(payload[:cut])
}
