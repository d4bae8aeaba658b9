package gateway

import (
	"errors"
	"strings"

	"github.com/billsync/backend/internal/domain/billing"
)

const (
	// LiveAPIURL is the production API endpoint
	LiveAPIURL = "https://api.asaas.com/v3"
	// SandboxAPIURL is the sandbox API endpoint
	SandboxAPIURL = "https://api-sandbox.asaas.com/v3"

	// DefaultProvider is the provider name written to audit records
	DefaultProvider = "asaas"
	// DefaultPageSize is the number of payments fetched per tenant per run
	DefaultPageSize = 100
	// MaxPageSize is the largest page the gateway accepts
	MaxPageSize = 100
	// DefaultTimeoutSeconds is the HTTP request timeout
	DefaultTimeoutSeconds = 30
)

// Errors for gateway configuration
var (
	ErrConfigPageSizeTooLarge = errors.New("gateway: page size exceeds 100")
	ErrMissingAccessToken     = errors.New("gateway: tenant has no access token")
	ErrMissingTenantID        = errors.New("gateway: tenant id is required")
	ErrUnknownMode            = errors.New("gateway: unknown tenant mode")
)

// Config holds process-wide settings for talking to the payment gateway.
// Credentials are per tenant and are never part of Config.
type Config struct {
	// Provider is the provider name recorded on audit records
	Provider string
	// LiveBaseURL is the base URL used by tenants in live mode
	LiveBaseURL string
	// SandboxBaseURL is the base URL used by tenants in sandbox mode
	SandboxBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// PageSize is the page size requested from the payments endpoint
	PageSize int
	// UserAgent is sent on every request
	UserAgent string
}

// DefaultConfig returns a configuration pointing at the public endpoints
func DefaultConfig() *Config {
	return &Config{
		Provider:       DefaultProvider,
		LiveBaseURL:    LiveAPIURL,
		SandboxBaseURL: SandboxAPIURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
		PageSize:       DefaultPageSize,
		UserAgent:      "billsync",
	}
}

// Validate fills in defaults and validates the configuration
func (c *Config) Validate() error {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.LiveBaseURL == "" {
		c.LiveBaseURL = LiveAPIURL
	}
	if c.SandboxBaseURL == "" {
		c.SandboxBaseURL = SandboxAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageSize > MaxPageSize {
		return ErrConfigPageSizeTooLarge
	}
	return nil
}

// BaseURL returns the endpoint the tenant integrates against
func (c *Config) BaseURL(tenant billing.Tenant) string {
	if tenant.IsSandbox() {
		return strings.TrimRight(c.SandboxBaseURL, "/")
	}
	return strings.TrimRight(c.LiveBaseURL, "/")
}
