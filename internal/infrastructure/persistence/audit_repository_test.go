package persistence

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billsync/backend/internal/domain/billing"
	"github.com/billsync/backend/internal/infrastructure/persistence/models"
)

func TestGormAuditSink_Append(t *testing.T) {
	db := setupSQLiteTestDB(t)
	sink := NewGormAuditSink(db)
	ctx := context.Background()

	record := billing.NewAuditRecord("asaas", "PAYMENT_OVERDUE", billing.AuditOutcomeSuccess, "t1", "", []byte(`{"event":"PAYMENT_OVERDUE"}`))
	require.NoError(t, sink.Append(ctx, record))

	var stored []models.AuditRecordModel
	require.NoError(t, db.Find(&stored).Error)
	require.Len(t, stored, 1)

	got := stored[0].ToDomain()
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, "asaas", got.Provider)
	assert.Equal(t, "PAYMENT_OVERDUE", got.EventLabel)
	assert.Equal(t, billing.AuditOutcomeSuccess, got.Outcome)
	assert.Equal(t, "t1", got.TenantID)
	assert.Equal(t, `{"event":"PAYMENT_OVERDUE"}`, got.Payload)
}

func TestGormAuditSink_Append_TruncatedPayload(t *testing.T) {
	db := setupSQLiteTestDB(t)
	sink := NewGormAuditSink(db)

	payload := []byte(strings.Repeat("x", billing.MaxAuditPayloadBytes*2))
	record := billing.NewAuditRecord("asaas", "PAYMENT_RECEIVED", billing.AuditOutcomeFailure, "t1", "MISSING_CUSTOMER", payload)
	require.NoError(t, sink.Append(context.Background(), record))

	var stored models.AuditRecordModel
	require.NoError(t, db.First(&stored).Error)
	assert.Len(t, stored.Payload, billing.MaxAuditPayloadBytes)
	assert.Equal(t, "MISSING_CUSTOMER", stored.Reason)
}

func TestGormAuditSink_Append_Nil(t *testing.T) {
	db := setupSQLiteTestDB(t)
	sink := NewGormAuditSink(db)

	assert.NoError(t, sink.Append(context.Background(), nil))

	var count int64
	require.NoError(t, db.Model(&models.AuditRecordModel{}).Count(&count).Error)
	assert.Zero(t, count)
}
