package billing

import (
	"strings"
	"time"

	"github.com/billsync/backend/internal/domain/shared"
)

// Contact is a tenant-scoped customer whose billing status is reconciled
// against the payment gateway. It is mutated only through Decide.
type Contact struct {
	shared.Versioned
	TenantID           string
	ExternalCustomerID *string
	Email              string
	Name               string
	BillingStatus      BillingStatus
	// StatusUpdatedAt is the event time of the last applied event, never the wall clock
	StatusUpdatedAt time.Time
}

// NewFirstSeenContact creates a contact for a customer the tenant has never
// seen before. It starts as unknown at the zero time so any event applies.
func NewFirstSeenContact(tenantID, externalCustomerID, email string) (*Contact, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if strings.TrimSpace(externalCustomerID) == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "External customer ID cannot be empty")
	}

	extID := externalCustomerID
	return &Contact{
		Versioned:          shared.NewVersioned(),
		TenantID:           tenantID,
		ExternalCustomerID: &extID,
		Email:              strings.TrimSpace(email),
		BillingStatus:      BillingStatusUnknown,
	}, nil
}

// HasExternalCustomerID returns true if the contact is linked to a gateway customer
func (c *Contact) HasExternalCustomerID() bool {
	return c.ExternalCustomerID != nil && *c.ExternalCustomerID != ""
}

// LinkExternalCustomer binds the contact to a gateway customer id.
// An existing link is never replaced.
func (c *Contact) LinkExternalCustomer(externalCustomerID string) bool {
	if c.HasExternalCustomerID() || externalCustomerID == "" {
		return false
	}
	id := externalCustomerID
	c.ExternalCustomerID = &id
	return true
}
