package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/billsync/backend/internal/domain/billing"
)

// gatewayTimeLayout is the layout the gateway uses for dateCreated
const gatewayTimeLayout = "2006-01-02 15:04:05"

// paymentStatuses maps gateway payment statuses to canonical ones
var paymentStatuses = map[string]billing.PaymentStatus{
	StatusReceived:       billing.PaymentStatusReceived,
	StatusReceivedInCash: billing.PaymentStatusReceived,
	StatusConfirmed:      billing.PaymentStatusConfirmed,
	StatusOverdue:        billing.PaymentStatusOverdue,
	StatusPending:        billing.PaymentStatusPending,
}

// eventStatuses maps event labels to canonical statuses
var eventStatuses = map[string]billing.PaymentStatus{
	EventPaymentReceived:  billing.PaymentStatusReceived,
	EventPaymentConfirmed: billing.PaymentStatusConfirmed,
	EventPaymentOverdue:   billing.PaymentStatusOverdue,
	EventPaymentCreated:   billing.PaymentStatusPending,
}

// Mapper converts gateway payloads into canonical payment events.
// Untyped payload fields never get past it.
type Mapper struct {
	validate *validator.Validate
	location *time.Location
}

// NewMapper creates a mapper. Gateway timestamps without a zone are read in loc;
// nil means UTC.
func NewMapper(loc *time.Location) *Mapper {
	if loc == nil {
		loc = time.UTC
	}
	return &Mapper{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		location: loc,
	}
}

// DecodeWebhook parses and structurally validates a webhook body.
// It returns an error wrapping ErrMalformedPayload or ErrInvalidPayload.
func (m *Mapper) DecodeWebhook(body []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := m.validate.Struct(&payload); err != nil {
		return &payload, fmt.Errorf("%w: %s", ErrInvalidPayload, describeValidation(err))
	}
	return &payload, nil
}

// MapWebhook maps a webhook delivery for tenantID. The event time is the
// delivery's dateCreated, or receivedAt when it is absent or unparseable.
func (m *Mapper) MapWebhook(tenantID string, payload *WebhookPayload, receivedAt time.Time) (billing.PaymentEvent, error) {
	eventTime := receivedAt
	if t, ok := m.parseTime(payload.DateCreated); ok {
		eventTime = t
	}
	event, err := m.mapPayment(tenantID, payload.Event, payload.Payment, eventTime, billing.EventSourceWebhook)
	if err != nil {
		return event, err
	}
	event.DeliveryID = strings.TrimSpace(payload.ID)
	if event.DeliveryID == "" {
		event.DeliveryID = strings.TrimSpace(payload.DateCreated)
	}
	return event, nil
}

// MapPaymentItem maps one item of a payments page. observedAt is when the page
// was requested, the moment the gateway state was observed.
func (m *Mapper) MapPaymentItem(tenantID string, payment PaymentPayload, observedAt time.Time) (billing.PaymentEvent, error) {
	return m.mapPayment(tenantID, PollLabel(payment.Status), payment, observedAt, billing.EventSourcePoll)
}

// PollLabel is the audit label used for a payment observed by the periodic sync
func PollLabel(status string) string {
	if status == "" {
		return "PAYMENT_UNKNOWN"
	}
	return "PAYMENT_" + strings.ToUpper(status)
}

func (m *Mapper) mapPayment(tenantID, label string, payment PaymentPayload, eventTime time.Time, source billing.EventSource) (billing.PaymentEvent, error) {
	if strings.TrimSpace(tenantID) == "" {
		return billing.PaymentEvent{}, billing.NewMappingError(billing.MappingErrorMissingTenant, payment.ID, "tenant id is empty")
	}
	customer := strings.TrimSpace(payment.Customer)
	if customer == "" {
		return billing.PaymentEvent{}, billing.NewMappingError(billing.MappingErrorMissingCustomer, payment.ID, "customer is empty")
	}
	status, ok := ResolveStatus(payment.Status, label)
	if !ok {
		return billing.PaymentEvent{}, billing.NewMappingError(billing.MappingErrorUnknownStatus, payment.ID,
			fmt.Sprintf("status %q with event %q", payment.Status, label))
	}

	return billing.PaymentEvent{
		TenantID:      tenantID,
		PaymentID:     payment.ID,
		CustomerID:    customer,
		CustomerEmail: m.customerEmail(payment.CustomerEmail),
		Status:        status,
		EventTime:     eventTime,
		Source:        source,
		Label:         label,
	}, nil
}

// ResolveStatus returns the canonical status for a payment. The payment's own
// status wins when it is known; otherwise the event label decides.
func ResolveStatus(paymentStatus, label string) (billing.PaymentStatus, bool) {
	if s, ok := paymentStatuses[strings.ToUpper(strings.TrimSpace(paymentStatus))]; ok {
		return s, true
	}
	if s, ok := eventStatuses[strings.ToUpper(strings.TrimSpace(label))]; ok {
		return s, true
	}
	return "", false
}

// customerEmail drops an address that is not valid; resolution then relies
// on the customer id alone.
func (m *Mapper) customerEmail(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || m.validate.Var(value, "email") != nil {
		return ""
	}
	return value
}

func (m *Mapper) parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(gatewayTimeLayout, value, m.location); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(fields, "; ")
}
