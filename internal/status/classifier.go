// Package status derives temporal sale-status classifications from sale
// windows and detects rows whose main record and channel records disagree.
// Everything here is pure: same inputs, same answer.
package status

import (
	"strings"
	"time"

	"planscope/internal/domain"
)

// Classify maps a sale window onto a status, relative to today.
// Precedence, highest first: missing date, unparsable date, inverted range,
// "forever" end sentinel, then the plain range comparison. The inverted-range
// check outranks the sentinel so that a window ending at the sentinel but
// starting after it still reads as abnormal.
func Classify(today time.Time, start, end string) domain.Status {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return domain.StatusAbnormal
	}

	s, okStart := domain.ParseDate(start)
	e, okEnd := domain.ParseDate(end)
	if !okStart || !okEnd {
		return domain.StatusAbnormal
	}
	if s.After(e) {
		return domain.StatusAbnormal
	}
	if domain.IsForeverEnd(end) {
		return domain.StatusInSale
	}

	d := dateOnly(today)
	switch {
	case d.Before(s):
		return domain.StatusPending
	case d.After(e):
		return domain.StatusStopped
	default:
		return domain.StatusInSale
	}
}

// Special reports whether a row's main record and channel records are
// mutually inconsistent. OR of:
//  1. main stopped but some channel still in sale
//  2. main in sale, channels exist, none in sale
//  3. a channel end date outlives the main end date
//  4. a channel start date precedes the main start date
//  5. main status abnormal
func Special(main domain.Status, mainStart, mainEnd string, channels []domain.ChannelView) bool {
	if main == domain.StatusAbnormal {
		return true
	}

	if main == domain.StatusStopped {
		for _, ch := range channels {
			if ch.Status == domain.StatusInSale {
				return true
			}
		}
	}

	if main == domain.StatusInSale && len(channels) > 0 {
		anyInSale := false
		for _, ch := range channels {
			if ch.Status == domain.StatusInSale {
				anyInSale = true
				break
			}
		}
		if !anyInSale {
			return true
		}
	}

	ms, okStart := domain.ParseDate(mainStart)
	me, okEnd := domain.ParseDate(mainEnd)
	for _, ch := range channels {
		if okEnd {
			if e, ok := domain.ParseDate(ch.End); ok && e.After(me) {
				return true
			}
		}
		if okStart {
			if s, ok := domain.ParseDate(ch.Start); ok && s.Before(ms) {
				return true
			}
		}
	}

	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
