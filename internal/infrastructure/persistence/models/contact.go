package models

import (
	"time"

	"github.com/billsync/backend/internal/domain/billing"
)

// ContactModel is the persistence model for the Contact aggregate root.
type ContactModel struct {
	VersionedModel
	TenantID           string                `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_contacts_tenant_external,priority:1"`
	ExternalCustomerID *string               `gorm:"type:varchar(128);uniqueIndex:idx_contacts_tenant_external,priority:2"`
	Email              string                `gorm:"type:varchar(320);index"`
	Name               string                `gorm:"type:varchar(200)"`
	BillingStatus      billing.BillingStatus `gorm:"type:varchar(20);not null;default:'unknown'"`
	StatusUpdatedAt    time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ContactModel) TableName() string {
	return "contacts"
}

// ToDomain converts the persistence model to a domain Contact.
func (m *ContactModel) ToDomain() *billing.Contact {
	var extID *string
	if m.ExternalCustomerID != nil {
		id := *m.ExternalCustomerID
		extID = &id
	}
	return &billing.Contact{
		Versioned:          m.toShared(),
		TenantID:           m.TenantID,
		ExternalCustomerID: extID,
		Email:              m.Email,
		Name:               m.Name,
		BillingStatus:      m.BillingStatus,
		StatusUpdatedAt:    m.StatusUpdatedAt.UTC(),
	}
}

// FromDomain populates the persistence model from a domain Contact.
func (m *ContactModel) FromDomain(c *billing.Contact) {
	m.fromShared(c.Versioned)
	m.TenantID = c.TenantID
	m.ExternalCustomerID = c.ExternalCustomerID
	m.Email = c.Email
	m.Name = c.Name
	m.BillingStatus = c.BillingStatus
	m.StatusUpdatedAt = c.StatusUpdatedAt.UTC()
}

// ContactModelFromDomain creates a persistence model from a domain Contact.
func ContactModelFromDomain(c *billing.Contact) *ContactModel {
	m := &ContactModel{}
	m.FromDomain(c)
	return m
}
