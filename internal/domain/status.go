package domain

// Status is the temporal sale-status classification of a plan or of one
// (plan, channel) sale window. Equality only; there is no meaningful ordering.
type Status string

const (
	StatusInSale   Status = "in_sale"
	StatusStopped  Status = "stopped"
	StatusPending  Status = "pending"
	StatusAbnormal Status = "abnormal"
)

var statusLabels = map[Status]string{
	StatusInSale:   "現售",
	StatusStopped:  "停售",
	StatusPending:  "待售",
	StatusAbnormal: "異常",
}

// Label returns the operator-facing display label.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}
