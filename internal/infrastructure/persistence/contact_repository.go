package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/billsync/backend/internal/domain/billing"
	"github.com/billsync/backend/internal/domain/shared"
	"github.com/billsync/backend/internal/infrastructure/persistence/models"
)

// GormContactRepository implements billing.ContactRepository using GORM
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository creates a new GormContactRepository
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// FindByExternalID finds the contact linked to a gateway customer within a tenant
func (r *GormContactRepository) FindByExternalID(ctx context.Context, tenantID, externalCustomerID string) (*billing.Contact, error) {
	var model models.ContactModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_customer_id = ?", tenantID, externalCustomerID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEmail finds up to limit contacts of a tenant by case-insensitive email
func (r *GormContactRepository) FindByEmail(ctx context.Context, tenantID, email string, limit int) ([]billing.Contact, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 2
	}

	var contactModels []models.ContactModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(email) = ?", tenantID, strings.ToLower(email)).
		Order("created_at ASC").
		Limit(limit).
		Find(&contactModels).Error; err != nil {
		return nil, err
	}

	contacts := make([]billing.Contact, len(contactModels))
	for i := range contactModels {
		contacts[i] = *contactModels[i].ToDomain()
	}
	return contacts, nil
}

// Create inserts a new contact
func (r *GormContactRepository) Create(ctx context.Context, contact *billing.Contact) error {
	model := models.ContactModelFromDomain(contact)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// UpdateStatusIfVersion performs the conditional write that serializes
// concurrent reconciliations of the same contact. The row is only updated when
// its version still matches and its stored status time is not newer.
func (r *GormContactRepository) UpdateStatusIfVersion(ctx context.Context, contact *billing.Contact) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.ContactModel{}).
		Where("id = ? AND version = ? AND status_updated_at <= ?", contact.ID, contact.Version, contact.StatusUpdatedAt.UTC()).
		Updates(map[string]any{
			"billing_status":       contact.BillingStatus,
			"status_updated_at":    contact.StatusUpdatedAt.UTC(),
			"external_customer_id": contact.ExternalCustomerID,
			"version":              gorm.Expr("version + 1"),
			"updated_at":           now,
		})

	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return shared.ErrAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	contact.IncrementVersion()
	contact.UpdatedAt = now
	return nil
}
