// Package billing provides domain models for reconciling the billing status of
// tenant contacts against an external payment gateway.
//
// This package implements the reconciliation bounded context, which is responsible for:
//   - Describing tenants (companies) and the gateway credentials they hold
//   - Tracking each contact's billing status and the event time it was last set at
//   - Deciding whether a canonical payment event may advance a contact's status
//   - Defining the append-only audit record written for every processed event
//
// Key Aggregates:
//   - Contact: Tenant-scoped customer whose billing status is reconciled
//
// Value Objects:
//   - PaymentEvent: Canonical, source-independent payment status notification
//   - Decision: Result of applying a PaymentEvent to a Contact
//   - AuditRecord: Immutable record of one processing attempt
//
// The ordering rule lives in Decide: an event older than the contact's
// StatusUpdatedAt is stale, and an event at the same instant only applies when
// its target status outranks the current one.
package billing
