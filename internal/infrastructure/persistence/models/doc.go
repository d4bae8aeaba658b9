// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free of ORM
// concerns; each model converts to and from its domain type.
//
// Structure:
// - versioned.go: Identity and optimistic lock columns shared by mutable rows
// - contact.go: Contact aggregate, the only row mutated by reconciliation
// - tenant.go: Tenant integrations read by the periodic sync
// - audit_record.go: Append-only audit log
package models
