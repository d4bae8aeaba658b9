package billing

import (
	"errors"
	"fmt"
)

// MappingErrorKind classifies why a gateway payload could not become a PaymentEvent
type MappingErrorKind string

const (
	MappingErrorMissingTenant   MappingErrorKind = "MISSING_TENANT"
	MappingErrorMissingCustomer MappingErrorKind = "MISSING_CUSTOMER"
	MappingErrorUnknownStatus   MappingErrorKind = "UNKNOWN_STATUS"
)

// String returns the string representation of MappingErrorKind
func (k MappingErrorKind) String() string {
	return string(k)
}

// MappingError is returned when a payload cannot be mapped to a PaymentEvent.
// It is skipped and audited, never fatal to the enclosing request or run.
type MappingError struct {
	Kind      MappingErrorKind
	PaymentID string
	Detail    string
}

// Error implements the error interface
func (e *MappingError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("mapping payment %q: %s", e.PaymentID, e.Kind)
	}
	return fmt.Sprintf("mapping payment %q: %s: %s", e.PaymentID, e.Kind, e.Detail)
}

// NewMappingError creates a new mapping error
func NewMappingError(kind MappingErrorKind, paymentID, detail string) *MappingError {
	return &MappingError{Kind: kind, PaymentID: paymentID, Detail: detail}
}

// AsMappingError returns the MappingError wrapped in err, if any
func AsMappingError(err error) (*MappingError, bool) {
	var me *MappingError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}
