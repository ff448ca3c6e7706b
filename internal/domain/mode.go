package domain

// QueryMode selects how the primary record set is resolved.
type QueryMode string

const (
	// ModeAll resolves the whole catalog in a single bulk call.
	ModeAll QueryMode = "all"
	// ModePlanCodes fans out one primary call per explicit plan code.
	ModePlanCodes QueryMode = "plan_codes"
	// ModeChannels fans out one primary call per selected channel.
	ModeChannels QueryMode = "channels"
	// ModeStoppedChannels resolves plans no longer sellable on the selected
	// channels; the reconciliation strategy is caller-selectable.
	ModeStoppedChannels QueryMode = "stopped_channels"
)

// StopStrategy picks how ModeStoppedChannels reconciles "stopped".
// The upstream API is ambiguous here, so both observed strategies are kept.
type StopStrategy string

const (
	// StopStrategyAllMinusActive queries all-time records per channel and
	// subtracts the currently-active set.
	StopStrategyAllMinusActive StopStrategy = "all_minus_active"
	// StopStrategyOpenEndFilter queries with an explicit empty end-date filter.
	StopStrategyOpenEndFilter StopStrategy = "open_end_filter"
)
