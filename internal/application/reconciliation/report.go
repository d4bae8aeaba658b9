package reconciliation

import "encoding/json"

// SyncReport is the result of one periodic run. Success is true whenever the
// tenant registry could be read; per-tenant failures live in Details.
type SyncReport struct {
	Success            bool           `json:"success"`
	ProcessedCompanies int            `json:"processed_companies"`
	Details            []TenantReport `json:"details"`
	Cancelled          bool           `json:"cancelled,omitempty"`
}

// TenantReport is one tenant's independent entry in a SyncReport
type TenantReport struct {
	TenantID        string `json:"tenantId"`
	Processed       int    `json:"processed"`
	OverdueFound    int    `json:"overdueFound"`
	Error           string `json:"error,omitempty"`
	Skipped         bool   `json:"skipped,omitempty"`
	Fetched         int    `json:"fetched"`
	MappingFailures int    `json:"mappingFailures"`
	Rejected        int    `json:"rejected"`
	EngineErrors    int    `json:"engineErrors,omitempty"`
}

// Failed returns true if the tenant's iteration did not complete
func (r TenantReport) Failed() bool {
	return r.Error != ""
}

// MarshalJSON renders a failed tenant as {tenantId, error} and a completed
// one with its counters.
func (r TenantReport) MarshalJSON() ([]byte, error) {
	if r.Failed() && r.Fetched == 0 {
		return json.Marshal(struct {
			TenantID string `json:"tenantId"`
			Error    string `json:"error"`
		}{r.TenantID, r.Error})
	}
	type plain TenantReport
	return json.Marshal(plain(r))
}

func newSyncReport(entries []TenantReport) *SyncReport {
	if entries == nil {
		entries = []TenantReport{}
	}
	return &SyncReport{
		Success:            true,
		ProcessedCompanies: len(entries),
		Details:            entries,
	}
}

func (r *SyncReport) hasCancelledEntries() bool {
	for _, d := range r.Details {
		if d.Error == ErrMsgCancelled {
			return true
		}
	}
	return false
}

// Failures returns the number of tenants whose iteration did not complete
func (r *SyncReport) Failures() int {
	n := 0
	for _, d := range r.Details {
		if d.Failed() {
			n++
		}
	}
	return n
}
