package domain

// QueryCriteria is immutable per query: created when the operator submits
// the form, consumed once by the session controller, never mutated mid-query.
type QueryCriteria struct {
	Mode QueryMode `validate:"required,oneof=all plan_codes channels stopped_channels"`

	// FreeText holds the operator's raw plan-code input for ModePlanCodes;
	// the controller parses it when PlanCodes is empty.
	FreeText  string
	PlanCodes []string `validate:"dive,min=1"`

	ChannelSelection []string `validate:"dive,min=1"`
	StatusSelection  []Status `validate:"dive,oneof=in_sale stopped pending abnormal"`

	StopStrategy StopStrategy `validate:"omitempty,oneof=all_minus_active open_end_filter"`
}
