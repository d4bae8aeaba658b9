package reconciliation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/billsync/backend/internal/domain/billing"
	"github.com/billsync/backend/internal/domain/shared"
	"github.com/billsync/backend/internal/infrastructure/gateway"
)

// memoryContacts is a ContactRepository with the same conditional-update
// semantics as the SQL implementation.
type memoryContacts struct {
	mu       sync.Mutex
	contacts map[uuid.UUID]billing.Contact

	// beforeUpdate runs under the lock before each conditional update and may
	// modify the stored rows to simulate a concurrent writer
	beforeUpdate func(stored map[uuid.UUID]billing.Contact)
	// beforeCreate runs under the lock before each insert
	beforeCreate func(stored map[uuid.UUID]billing.Contact)

	findErr error
	updates int
	creates int
}

func newMemoryContacts(seed ...billing.Contact) *memoryContacts {
	m := &memoryContacts{contacts: make(map[uuid.UUID]billing.Contact)}
	for _, c := range seed {
		m.contacts[c.ID] = c
	}
	return m
}

func (m *memoryContacts) FindByExternalID(_ context.Context, tenantID, externalCustomerID string) (*billing.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, c := range m.contacts {
		if c.TenantID == tenantID && c.ExternalCustomerID != nil && *c.ExternalCustomerID == externalCustomerID {
			found := c
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryContacts) FindByEmail(_ context.Context, tenantID, email string, limit int) ([]billing.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []billing.Contact
	for _, c := range m.contacts {
		if c.TenantID == tenantID && strings.EqualFold(c.Email, email) {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memoryContacts) Create(_ context.Context, contact *billing.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beforeCreate != nil {
		m.beforeCreate(m.contacts)
	}
	if m.externalIDTaken(contact.TenantID, contact.ExternalCustomerID, contact.ID) {
		return shared.ErrAlreadyExists
	}
	m.creates++
	m.contacts[contact.ID] = *contact
	return nil
}

func (m *memoryContacts) UpdateStatusIfVersion(_ context.Context, contact *billing.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beforeUpdate != nil {
		m.beforeUpdate(m.contacts)
	}
	stored, ok := m.contacts[contact.ID]
	if !ok || stored.Version != contact.Version || stored.StatusUpdatedAt.After(contact.StatusUpdatedAt) {
		return shared.ErrConcurrencyConflict
	}
	if m.externalIDTaken(contact.TenantID, contact.ExternalCustomerID, contact.ID) {
		return shared.ErrAlreadyExists
	}
	stored.BillingStatus = contact.BillingStatus
	stored.StatusUpdatedAt = contact.StatusUpdatedAt
	stored.ExternalCustomerID = contact.ExternalCustomerID
	stored.Version++
	m.contacts[contact.ID] = stored
	m.updates++
	contact.IncrementVersion()
	return nil
}

func (m *memoryContacts) externalIDTaken(tenantID string, externalID *string, self uuid.UUID) bool {
	if externalID == nil {
		return false
	}
	for id, c := range m.contacts {
		if id != self && c.TenantID == tenantID && c.ExternalCustomerID != nil && *c.ExternalCustomerID == *externalID {
			return true
		}
	}
	return false
}

func (m *memoryContacts) get(id uuid.UUID) billing.Contact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contacts[id]
}

func (m *memoryContacts) byExternalID(tenantID, externalID string) (billing.Contact, bool) {
	c, err := m.FindByExternalID(context.Background(), tenantID, externalID)
	if err != nil {
		return billing.Contact{}, false
	}
	return *c, true
}

func (m *memoryContacts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contacts)
}

func (m *memoryContacts) mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates + m.creates
}

// memoryAudit collects audit records
type memoryAudit struct {
	mu      sync.Mutex
	records []billing.AuditRecord
}

func (a *memoryAudit) Append(_ context.Context, record *billing.AuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, *record)
	return nil
}

func (a *memoryAudit) all() []billing.AuditRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]billing.AuditRecord(nil), a.records...)
}

func (a *memoryAudit) forTenant(tenantID string) []billing.AuditRecord {
	var out []billing.AuditRecord
	for _, r := range a.all() {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out
}

// MockAuditSink is a mock implementation of billing.AuditSink
type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) Append(ctx context.Context, record *billing.AuditRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockTenantRegistry is a mock implementation of billing.TenantRegistry
type MockTenantRegistry struct {
	mock.Mock
}

func (m *MockTenantRegistry) ListActive(ctx context.Context) ([]billing.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Tenant), args.Error(1)
}

// staticRegistry returns a fixed tenant list
type staticRegistry []billing.Tenant

func (r staticRegistry) ListActive(context.Context) ([]billing.Tenant, error) {
	return append([]billing.Tenant(nil), r...), nil
}

// listerFunc adapts a function to PaymentLister
type listerFunc func(ctx context.Context, filter gateway.PaymentFilter) (*gateway.PaymentPage, error)

func (f listerFunc) ListPayments(ctx context.Context, filter gateway.PaymentFilter) (*gateway.PaymentPage, error) {
	return f(ctx, filter)
}

// fakeClients hands out a lister per tenant id
type fakeClients struct {
	mu      sync.Mutex
	listers map[string]PaymentLister
	built   []string
}

func (f *fakeClients) NewLister(tenant billing.Tenant) (PaymentLister, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.built = append(f.built, tenant.ID)
	lister, ok := f.listers[tenant.ID]
	if !ok {
		return nil, gateway.ErrMissingAccessToken
	}
	return lister, nil
}

// recordingMetrics counts calls per measurement
type recordingMetrics struct {
	noopMetrics
	mu         sync.Mutex
	outcomes   map[string]int
	conflicts  int
	mapping    map[string]int
	duplicates int
	audits     int
	tenants    map[string]string
	runs       int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		outcomes: make(map[string]int),
		mapping:  make(map[string]int),
		tenants:  make(map[string]string),
	}
}

func (r *recordingMetrics) RecordOutcome(_ context.Context, _, _, outcome, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

func (r *recordingMetrics) RecordConflict(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts++
}

func (r *recordingMetrics) RecordMappingFailure(_ context.Context, _, _, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mapping[kind]++
}

func (r *recordingMetrics) RecordDuplicateDelivery(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.duplicates++
}

func (r *recordingMetrics) RecordAuditFailure(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits++
}

func (r *recordingMetrics) RecordSyncTenant(_ context.Context, tenantID, result string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[tenantID] = result
}

func (r *recordingMetrics) RecordSyncRun(context.Context, time.Duration, int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
}
