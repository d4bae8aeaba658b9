package billing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBillingStatus_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		status   BillingStatus
		expected bool
	}{
		{"unknown", BillingStatusUnknown, true},
		{"active", BillingStatusActive, true},
		{"overdue", BillingStatusOverdue, true},
		{"paid", BillingStatusPaid, true},
		{"empty", "", false},
		{"invalid", "cancelled", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsValid())
		})
	}
}

func TestBillingStatus_Rank(t *testing.T) {
	assert.Less(t, BillingStatus("bogus").Rank(), BillingStatusUnknown.Rank())
	assert.Less(t, BillingStatusUnknown.Rank(), BillingStatusActive.Rank())
	assert.Less(t, BillingStatusActive.Rank(), BillingStatusOverdue.Rank())
	assert.Less(t, BillingStatusOverdue.Rank(), BillingStatusPaid.Rank())
}

func TestPaymentStatus_IsValid(t *testing.T) {
	assert.True(t, PaymentStatusReceived.IsValid())
	assert.True(t, PaymentStatusConfirmed.IsValid())
	assert.True(t, PaymentStatusOverdue.IsValid())
	assert.True(t, PaymentStatusPending.IsValid())
	assert.False(t, PaymentStatus("RECEIVED_IN_CASH").IsValid())
	assert.False(t, PaymentStatus("").IsValid())
}

func TestMode_IsValid(t *testing.T) {
	assert.True(t, ModeSandbox.IsValid())
	assert.True(t, ModeLive.IsValid())
	assert.False(t, Mode("").IsValid())
	assert.False(t, Mode("production").IsValid())
}

func TestPaymentEvent_DeliveryKey(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := PaymentEvent{TenantID: "T1", PaymentID: "p1", Label: "PAYMENT_CONFIRMED", Status: PaymentStatusConfirmed, EventTime: at}

	same := e
	same.Source = EventSourcePoll
	assert.Equal(t, e.DeliveryKey(), same.DeliveryKey())

	redelivered := e
	redelivered.EventTime = at.Add(time.Hour)
	assert.Equal(t, e.DeliveryKey(), redelivered.DeliveryKey(), "receive time is not part of the key")

	otherDelivery := e
	otherDelivery.DeliveryID = "evt_2"
	assert.NotEqual(t, e.DeliveryKey(), otherDelivery.DeliveryKey())

	otherStatus := e
	otherStatus.Status = PaymentStatusReceived
	assert.NotEqual(t, e.DeliveryKey(), otherStatus.DeliveryKey())

	otherTenant := e
	otherTenant.TenantID = "T2"
	assert.NotEqual(t, e.DeliveryKey(), otherTenant.DeliveryKey())

	assert.True(t, strings.HasPrefix(e.DeliveryKey(), "T1|p1|PAYMENT_CONFIRMED|"))
}
