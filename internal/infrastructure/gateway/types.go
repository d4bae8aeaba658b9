package gateway

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Event labels and payment statuses as the gateway sends them
// ---------------------------------------------------------------------------

const (
	EventPaymentCreated   = "PAYMENT_CREATED"
	EventPaymentConfirmed = "PAYMENT_CONFIRMED"
	EventPaymentReceived  = "PAYMENT_RECEIVED"
	EventPaymentOverdue   = "PAYMENT_OVERDUE"
)

const (
	StatusPending        = "PENDING"
	StatusConfirmed      = "CONFIRMED"
	StatusReceived       = "RECEIVED"
	StatusReceivedInCash = "RECEIVED_IN_CASH"
	StatusOverdue        = "OVERDUE"
)

// DefaultSyncStatuses are the outstanding states fetched by the periodic sync
var DefaultSyncStatuses = []string{StatusOverdue, StatusPending}

// ---------------------------------------------------------------------------
// Payload types
// ---------------------------------------------------------------------------

// WebhookPayload is the body of a payment webhook delivery
type WebhookPayload struct {
	// ID is the delivery id assigned by the gateway, when present
	ID string `json:"id,omitempty"`
	// Event is the event label, e.g. PAYMENT_CONFIRMED
	Event string `json:"event" validate:"required"`
	// DateCreated is when the gateway emitted the event
	DateCreated string         `json:"dateCreated,omitempty"`
	Payment     PaymentPayload `json:"payment"`
}

// PaymentPayload is a payment as returned by the payments endpoint and
// embedded in webhook deliveries
type PaymentPayload struct {
	Object            string          `json:"object,omitempty"`
	ID                string          `json:"id" validate:"required"`
	Customer          string          `json:"customer"`
	CustomerEmail     string          `json:"customerEmail,omitempty"`
	Status            string          `json:"status,omitempty"`
	Value             decimal.Decimal `json:"value"`
	NetValue          decimal.Decimal `json:"netValue"`
	BillingType       string          `json:"billingType,omitempty"`
	DueDate           string          `json:"dueDate,omitempty"`
	PaymentDate       string          `json:"paymentDate,omitempty"`
	DateCreated       string          `json:"dateCreated,omitempty"`
	ExternalReference string          `json:"externalReference,omitempty"`
	Description       string          `json:"description,omitempty"`

	// Raw is the item exactly as the payments endpoint returned it
	Raw json.RawMessage `json:"-"`
}

// paymentListResponse is the envelope of the payments endpoint
type paymentListResponse struct {
	Object     string            `json:"object"`
	HasMore    bool              `json:"hasMore"`
	TotalCount int               `json:"totalCount"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
	Data       []json.RawMessage `json:"data"`
}

// ---------------------------------------------------------------------------
// Client request/response types
// ---------------------------------------------------------------------------

// PaymentFilter selects the payments returned by ListPayments
type PaymentFilter struct {
	// Statuses defaults to DefaultSyncStatuses
	Statuses []string
	// Limit defaults to the configured page size
	Limit int
}

// PaymentPage is one bounded page of payments
type PaymentPage struct {
	Payments   []PaymentPayload
	HasMore    bool
	TotalCount int
	// ObservedAt is when the page request was issued
	ObservedAt time.Time
}
