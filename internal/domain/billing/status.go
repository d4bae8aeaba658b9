package billing

// BillingStatus represents the reconciled billing state of a contact
type BillingStatus string

const (
	// BillingStatusUnknown is the initial state of a first-seen contact
	BillingStatusUnknown BillingStatus = "unknown"
	// BillingStatusActive indicates an outstanding payment that is not yet due
	BillingStatusActive BillingStatus = "active"
	// BillingStatusOverdue indicates an outstanding payment past its due date
	BillingStatusOverdue BillingStatus = "overdue"
	// BillingStatusPaid indicates the latest known payment was settled
	BillingStatusPaid BillingStatus = "paid"
)

// IsValid returns true if the billing status is valid
func (s BillingStatus) IsValid() bool {
	switch s {
	case BillingStatusUnknown, BillingStatusActive, BillingStatusOverdue, BillingStatusPaid:
		return true
	default:
		return false
	}
}

// String returns the string representation of BillingStatus
func (s BillingStatus) String() string {
	return string(s)
}

// Rank orders statuses for events that carry the same event time.
// unknown < active < overdue < paid. Invalid values rank below unknown.
func (s BillingStatus) Rank() int {
	switch s {
	case BillingStatusUnknown:
		return 1
	case BillingStatusActive:
		return 2
	case BillingStatusOverdue:
		return 3
	case BillingStatusPaid:
		return 4
	default:
		return 0
	}
}

// PaymentStatus is the canonical status carried by a PaymentEvent
type PaymentStatus string

const (
	// PaymentStatusReceived indicates the gateway received the money
	PaymentStatusReceived PaymentStatus = "RECEIVED"
	// PaymentStatusConfirmed indicates the payment was confirmed but not yet settled
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	// PaymentStatusOverdue indicates the payment is past its due date
	PaymentStatusOverdue PaymentStatus = "OVERDUE"
	// PaymentStatusPending indicates the payment is awaiting settlement
	PaymentStatusPending PaymentStatus = "PENDING"
)

// IsValid returns true if the payment status is one the engine understands
func (s PaymentStatus) IsValid() bool {
	_, ok := s.TargetBillingStatus()
	return ok
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// TargetBillingStatus returns the contact billing status this payment status leads to
func (s PaymentStatus) TargetBillingStatus() (BillingStatus, bool) {
	switch s {
	case PaymentStatusReceived, PaymentStatusConfirmed:
		return BillingStatusPaid, true
	case PaymentStatusOverdue:
		return BillingStatusOverdue, true
	case PaymentStatusPending:
		return BillingStatusActive, true
	default:
		return "", false
	}
}

// EventSource identifies the ingestion path that produced an event
type EventSource string

const (
	EventSourceWebhook EventSource = "webhook"
	EventSourcePoll    EventSource = "poll"
)

// String returns the string representation of EventSource
func (s EventSource) String() string {
	return string(s)
}
