package billing

import (
	"strings"
	"time"
)

// PaymentEvent is the canonical, tenant-scoped representation of a single
// payment status notification, whichever path it arrived through.
// It is never persisted.
type PaymentEvent struct {
	TenantID      string
	PaymentID     string
	CustomerID    string
	CustomerEmail string
	Status        PaymentStatus
	EventTime     time.Time
	Source        EventSource
	// Label is the gateway event label, kept for auditing
	Label string
	// DeliveryID is what the gateway put in the notification to identify it:
	// its id, or its own timestamp when it has no id. Empty for polled items.
	DeliveryID string
}

// DeliveryKey identifies one notification. It is built from payload data only,
// so a redelivery has the same key however late it arrives.
func (e PaymentEvent) DeliveryKey() string {
	return strings.Join([]string{
		e.TenantID,
		e.PaymentID,
		e.Label,
		string(e.Status),
		e.DeliveryID,
	}, "|")
}
