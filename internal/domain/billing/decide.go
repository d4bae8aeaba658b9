package billing

// RejectReason explains why an event was not applied to a contact
type RejectReason string

const (
	// RejectReasonStale means the event is not newer than the contact's current status
	RejectReasonStale RejectReason = "STALE"
	// RejectReasonUnknownStatus means the event carries a status the engine cannot map
	RejectReasonUnknownStatus RejectReason = "UNKNOWN_STATUS"
	// RejectReasonUnresolvedCustomer means no contact could be resolved for the event
	RejectReasonUnresolvedCustomer RejectReason = "UNRESOLVED_CUSTOMER"
)

// String returns the string representation of RejectReason
func (r RejectReason) String() string {
	return string(r)
}

// Decision is the result of applying a PaymentEvent to a Contact
type Decision struct {
	Next    Contact
	Applied bool
	Reason  RejectReason
}

// Decide computes the next state of current for event without side effects.
//
// An event older than current.StatusUpdatedAt is rejected as stale. An event
// at the same instant applies only when its target status outranks the
// current one, so ties resolve the same way whatever order they arrive in and
// a replay is a no-op.
func Decide(current Contact, event PaymentEvent) Decision {
	target, ok := event.Status.TargetBillingStatus()
	if !ok {
		return Decision{Next: current, Reason: RejectReasonUnknownStatus}
	}

	if event.EventTime.Before(current.StatusUpdatedAt) {
		return Decision{Next: current, Reason: RejectReasonStale}
	}
	if event.EventTime.Equal(current.StatusUpdatedAt) && target.Rank() <= current.BillingStatus.Rank() {
		return Decision{Next: current, Reason: RejectReasonStale}
	}

	next := current
	next.BillingStatus = target
	next.StatusUpdatedAt = event.EventTime
	return Decision{Next: next, Applied: true}
}
