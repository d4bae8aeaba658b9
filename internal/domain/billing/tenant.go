package billing

import "strings"

// Mode selects the gateway environment a tenant integrates with
type Mode string

const (
	ModeSandbox Mode = "sandbox"
	ModeLive    Mode = "live"
)

// IsValid returns true if the mode is valid
func (m Mode) IsValid() bool {
	return m == ModeSandbox || m == ModeLive
}

// String returns the string representation of Mode
func (m Mode) String() string {
	return string(m)
}

// Credentials holds the gateway credentials configured for a tenant
type Credentials struct {
	AccessToken string
}

// Tenant is an independent company whose contacts and payments are isolated
// from every other tenant. It is read once per run and never mutated here.
type Tenant struct {
	ID          string
	Name        string
	Active      bool
	Credentials Credentials
	Mode        Mode
}

// HasCredentials returns true if the tenant has a usable access token
func (t Tenant) HasCredentials() bool {
	return strings.TrimSpace(t.Credentials.AccessToken) != ""
}

// IsSandbox returns true unless the tenant explicitly integrates in live mode
func (t Tenant) IsSandbox() bool {
	return t.Mode != ModeLive
}
