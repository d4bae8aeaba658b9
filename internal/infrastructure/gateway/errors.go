package gateway

import (
	"errors"
	"fmt"
)

// ProviderErrorKind classifies failures talking to the gateway
type ProviderErrorKind string

const (
	ProviderErrorUnauthorized ProviderErrorKind = "UNAUTHORIZED"
	ProviderErrorRateLimited  ProviderErrorKind = "RATE_LIMITED"
	ProviderErrorUnavailable  ProviderErrorKind = "UNAVAILABLE"
	ProviderErrorMalformed    ProviderErrorKind = "MALFORMED"
)

// Sentinel errors matched through ProviderError with errors.Is
var (
	ErrUnauthorized = errors.New("gateway: unauthorized")
	ErrRateLimited  = errors.New("gateway: rate limited")
	ErrUnavailable  = errors.New("gateway: unavailable")
	ErrMalformed    = errors.New("gateway: malformed response")
)

// Errors for webhook payload decoding
var (
	ErrMalformedPayload = errors.New("malformed JSON payload")
	ErrInvalidPayload   = errors.New("invalid payload")
)

// ProviderError is returned by Client for any failed gateway call
type ProviderError struct {
	Kind       ProviderErrorKind
	StatusCode int
	Err        error
}

func (e *ProviderError) sentinel() error {
	switch e.Kind {
	case ProviderErrorUnauthorized:
		return ErrUnauthorized
	case ProviderErrorRateLimited:
		return ErrRateLimited
	case ProviderErrorMalformed:
		return ErrMalformed
	default:
		return ErrUnavailable
	}
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Err == nil {
		return e.sentinel().Error()
	}
	return fmt.Sprintf("%s: %v", e.sentinel(), e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.sentinel()}
	}
	return []error{e.sentinel(), e.Err}
}

func newProviderError(kind ProviderErrorKind, statusCode int, err error) *ProviderError {
	return &ProviderError{Kind: kind, StatusCode: statusCode, Err: err}
}

// classifyStatus maps a non-2xx HTTP status to a provider error
func classifyStatus(statusCode int, status string) *ProviderError {
	cause := fmt.Errorf("HTTP %s", status)
	switch {
	case statusCode == 401 || statusCode == 403:
		return newProviderError(ProviderErrorUnauthorized, statusCode, cause)
	case statusCode == 429:
		return newProviderError(ProviderErrorRateLimited, statusCode, cause)
	default:
		return newProviderError(ProviderErrorUnavailable, statusCode, cause)
	}
}
