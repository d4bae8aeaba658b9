package billing

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuditRecord(t *testing.T) {
	r := NewAuditRecord("asaas", "PAYMENT_CONFIRMED", AuditOutcomeSuccess, "T1", "", []byte(`{"event":"PAYMENT_CONFIRMED"}`))

	require.NotNil(t, r)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", r.ID.String())
	assert.Equal(t, "asaas", r.Provider)
	assert.Equal(t, "PAYMENT_CONFIRMED", r.EventLabel)
	assert.Equal(t, AuditOutcomeSuccess, r.Outcome)
	assert.Equal(t, "T1", r.TenantID)
	assert.Equal(t, `{"event":"PAYMENT_CONFIRMED"}`, r.Payload)
	assert.False(t, r.CreatedAt.IsZero())
}

func TestTruncatePayload(t *testing.T) {
	t.Run("short payload is kept", func(t *testing.T) {
		assert.Equal(t, "abc", TruncatePayload([]byte("abc"), 10))
	})

	t.Run("long payload is cut to limit", func(t *testing.T) {
		payload := []byte(strings.Repeat("x", MaxAuditPayloadBytes+100))
		r := NewAuditRecord("asaas", "", AuditOutcomeFailure, "T1", "", payload)
		assert.Len(t, r.Payload, MaxAuditPayloadBytes)
	})

	t.Run("multi-byte rune is not split", func(t *testing.T) {
		// "é" is two bytes; a limit of 4 falls inside the third rune
		out := TruncatePayload([]byte("aééé"), 4)
		assert.Equal(t, "aé", out)
		assert.True(t, utf8.ValidString(out))
	})
}

func TestMappingError(t *testing.T) {
	err := NewMappingError(MappingErrorMissingCustomer, "p1", "customer is empty")
	assert.Equal(t, `mapping payment "p1": MISSING_CUSTOMER: customer is empty`, err.Error())

	me, ok := AsMappingError(err)
	require.True(t, ok)
	assert.Equal(t, MappingErrorMissingCustomer, me.Kind)

	_, ok = AsMappingError(assert.AnError)
	assert.False(t, ok)
}
