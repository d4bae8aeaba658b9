package billing

import "context"

// ContactRepository stores contacts. Every status change goes through
// UpdateStatusIfVersion so concurrent writers cannot lose updates.
type ContactRepository interface {
	// FindByExternalID returns shared.ErrNotFound when no contact is linked to the id
	FindByExternalID(ctx context.Context, tenantID, externalCustomerID string) (*Contact, error)

	// FindByEmail returns up to limit contacts of the tenant with the given email
	FindByEmail(ctx context.Context, tenantID, email string, limit int) ([]Contact, error)

	// Create inserts a new contact. It returns shared.ErrAlreadyExists when the
	// (tenant, external customer id) pair is already taken.
	Create(ctx context.Context, contact *Contact) error

	// UpdateStatusIfVersion writes the contact's status, status time and external
	// id only if the stored version still equals contact.Version and the stored
	// status time is not newer. On success contact.Version is incremented; a lost
	// race returns shared.ErrConcurrencyConflict.
	UpdateStatusIfVersion(ctx context.Context, contact *Contact) error
}

// TenantRegistry is a read-only view over active tenant integrations
type TenantRegistry interface {
	ListActive(ctx context.Context) ([]Tenant, error)
}

// AuditSink is the append-only audit log
type AuditSink interface {
	Append(ctx context.Context, record *AuditRecord) error
}
