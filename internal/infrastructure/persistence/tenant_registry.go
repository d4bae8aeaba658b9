package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/billsync/backend/internal/domain/billing"
	"github.com/billsync/backend/internal/infrastructure/persistence/models"
)

// GormTenantRegistry implements billing.TenantRegistry using GORM
type GormTenantRegistry struct {
	db *gorm.DB
}

// NewGormTenantRegistry creates a new GormTenantRegistry
func NewGormTenantRegistry(db *gorm.DB) *GormTenantRegistry {
	return &GormTenantRegistry{db: db}
}

// ListActive returns every active tenant ordered by id. Tenants without
// credentials are included; callers decide whether to skip them.
func (r *GormTenantRegistry) ListActive(ctx context.Context) ([]billing.Tenant, error) {
	var tenantModels []models.TenantModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&tenantModels).Error; err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	tenants := make([]billing.Tenant, len(tenantModels))
	for i := range tenantModels {
		tenants[i] = tenantModels[i].ToDomain()
	}
	return tenants, nil
}
