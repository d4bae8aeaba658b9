package models

import (
	"time"

	"github.com/billsync/backend/internal/domain/billing"
)

// TenantModel is the persistence model for a tenant's gateway integration.
type TenantModel struct {
	ID          string       `gorm:"type:varchar(64);primaryKey"`
	Name        string       `gorm:"type:varchar(200);not null"`
	Active      bool         `gorm:"not null;index"`
	AccessToken string       `gorm:"type:text"`
	Mode        billing.Mode `gorm:"type:varchar(10);not null;default:'sandbox'"`
	CreatedAt   time.Time    `gorm:"not null"`
	UpdatedAt   time.Time    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant.
func (m *TenantModel) ToDomain() billing.Tenant {
	return billing.Tenant{
		ID:          m.ID,
		Name:        m.Name,
		Active:      m.Active,
		Credentials: billing.Credentials{AccessToken: m.AccessToken},
		Mode:        m.Mode,
	}
}

// TenantModelFromDomain creates a persistence model from a domain Tenant.
func TenantModelFromDomain(t billing.Tenant) *TenantModel {
	return &TenantModel{
		ID:          t.ID,
		Name:        t.Name,
		Active:      t.Active,
		AccessToken: t.Credentials.AccessToken,
		Mode:        t.Mode,
	}
}
