package models

import (
	"time"

	"github.com/billsync/backend/internal/domain/billing"
	"github.com/google/uuid"
)

// AuditRecordModel is the persistence model for an audit record. Rows are
// only ever inserted.
type AuditRecordModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primary_key"`
	Provider   string               `gorm:"type:varchar(50);not null"`
	EventLabel string               `gorm:"type:varchar(100);not null"`
	Outcome    billing.AuditOutcome `gorm:"type:varchar(10);not null;index"`
	Reason     string               `gorm:"type:varchar(200)"`
	TenantID   string               `gorm:"type:varchar(64);index"`
	Payload    string               `gorm:"type:text"`
	CreatedAt  time.Time            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditRecordModel) TableName() string {
	return "audit_records"
}

// ToDomain converts the persistence model to a domain AuditRecord.
func (m *AuditRecordModel) ToDomain() *billing.AuditRecord {
	return &billing.AuditRecord{
		ID:         m.ID,
		Provider:   m.Provider,
		EventLabel: m.EventLabel,
		Outcome:    m.Outcome,
		Reason:     m.Reason,
		TenantID:   m.TenantID,
		Payload:    m.Payload,
		CreatedAt:  m.CreatedAt,
	}
}

// AuditRecordModelFromDomain creates a persistence model from a domain AuditRecord.
func AuditRecordModelFromDomain(r *billing.AuditRecord) *AuditRecordModel {
	return &AuditRecordModel{
		ID:         r.ID,
		Provider:   r.Provider,
		EventLabel: r.EventLabel,
		Outcome:    r.Outcome,
		Reason:     r.Reason,
		TenantID:   r.TenantID,
		Payload:    r.Payload,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}
