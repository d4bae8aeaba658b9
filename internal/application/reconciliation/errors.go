package reconciliation

import (
	"errors"
	"fmt"
)

// ErrConflictRetriesExhausted is returned when a contact kept changing under
// the engine for every allowed attempt.
var ErrConflictRetriesExhausted = errors.New("reconciliation: conflict retries exhausted")

// MsgMissingTenant is the message returned when a webhook arrives without a tenant id
const MsgMissingTenant = "Missing company_id parameter"

// ValidationError is a rejected webhook request: missing tenant id, malformed
// JSON or a payload failing structural validation. It is never retried.
type ValidationError struct {
	Message string
	Err     error
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// RegistryError means the tenant registry could not be read, which fails the
// whole periodic run.
type RegistryError struct {
	Err error
}

// Error implements the error interface
func (e *RegistryError) Error() string {
	return fmt.Sprintf("tenant registry unavailable: %v", e.Err)
}

// Unwrap returns the underlying cause
func (e *RegistryError) Unwrap() error {
	return e.Err
}
