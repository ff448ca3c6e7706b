package domain

import (
	"strings"
	"time"
)

const (
	DateLayoutDash    = "2006-01-02"
	DateLayoutCompact = "20060102"

	// An end date carrying either sentinel means "no planned end".
	ForeverEndDash    = "9999-12-31"
	ForeverEndCompact = "99991231"
)

// ParseDate parses a sale-window date in either canonical layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{DateLayoutDash, DateLayoutCompact} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsForeverEnd reports whether an end date is the "no expiry" sentinel.
// Substring match on purpose: upstream sometimes pads the field.
func IsForeverEnd(end string) bool {
	return strings.Contains(end, ForeverEndCompact) || strings.Contains(end, ForeverEndDash)
}
