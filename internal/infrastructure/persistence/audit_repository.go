package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/billsync/backend/internal/domain/billing"
	"github.com/billsync/backend/internal/infrastructure/persistence/models"
)

// GormAuditSink implements billing.AuditSink using GORM. Records are only
// ever inserted.
type GormAuditSink struct {
	db *gorm.DB
}

// NewGormAuditSink creates a new GormAuditSink
func NewGormAuditSink(db *gorm.DB) *GormAuditSink {
	return &GormAuditSink{db: db}
}

// Append stores one audit record
func (s *GormAuditSink) Append(ctx context.Context, record *billing.AuditRecord) error {
	if record == nil {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(models.AuditRecordModelFromDomain(record)).Error; err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}
