package domain

// RawRecord is one item as returned by the primary catalog query.
// Read-only; held only long enough to derive a ProcessedRow, plus a buffer
// copy to support later forced re-fetch of details.
type RawRecord struct {
	PlanCode      string `json:"planCode"`
	PlanName      string `json:"planName"`
	Currency      string `json:"currency"`
	PremiumUnit   string `json:"premiumUnit"`
	CoverageType  string `json:"coverageType"`
	SaleStartDate string `json:"saleStartDate"`
	SaleEndDate   string `json:"saleEndDate"`

	// Error sentinel fields, set locally when a per-item primary lookup
	// fails; never part of the wire payload.
	APIStatus  string `json:"-"`
	IsErrorRow bool   `json:"-"`
}

// ErrorRecord builds the sentinel raw record for a failed per-item lookup.
func ErrorRecord(planCode, note string) RawRecord {
	return RawRecord{PlanCode: planCode, APIStatus: note, IsErrorRow: true}
}

// ChannelRecord is one sale window for one (planCode, channel) pair.
// Replaced wholesale on refresh, never shared-mutated.
type ChannelRecord struct {
	Channel       string `json:"channel"`
	SaleStartDate string `json:"saleStartDate"`
	SaleEndDate   string `json:"saleEndDate"`
}

// ChannelView is a ChannelRecord after alias normalization and status
// classification, ready for display.
type ChannelView struct {
	Code   string
	Start  string
	End    string
	Status Status
}

const (
	DetailLoading = "loading"
	DetailFailed  = "failed to load"

	NoteNotFound    = "not found"
	NoteQueryFailed = "query failed"
)

// ProcessedRow is the unit the view model operates on. It is the one entity
// with a mutable lifecycle: created at ingestion with placeholder detail
// fields and mutated in place as async detail fetches resolve. Special is
// always recomputed from (MainStatus, sale window, Channels); it is never
// set directly by a caller.
type ProcessedRow struct {
	Seq       int // stable per current ingestion order, not identity
	PlanCode  string
	Name      string
	Currency  string
	Unit      string
	Coverage  string
	SaleStart string
	SaleEnd   string

	MainStatus Status
	DetailText string
	Loading    bool
	Channels   []ChannelView
	Special    bool

	IsErrorRow bool
	StatusNote string
}
