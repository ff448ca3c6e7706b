// Package view projects processed rows into a renderable page. Project is a
// pure function over the full row set; it holds no incremental state, so
// callers simply re-project after any data mutation or view-control change.
package view

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"planscope/internal/domain"
)

// Sort keys accepted by Options.SortKey.
const (
	SortSeq       = "seq"
	SortPlanCode  = "planCode"
	SortName      = "name"
	SortCurrency  = "currency"
	SortSaleStart = "saleStart"
	SortSaleEnd   = "saleEnd"
	SortStatus    = "status"
)

var dateSortKeys = map[string]bool{
	SortSaleStart: true,
	SortSaleEnd:   true,
}

type Options struct {
	SpecialOnly  bool
	StatusFilter []domain.Status
	SearchText   string

	SortKey       string
	SortAscending bool

	PageNumber int
	PageSize   int
	ShowAll    bool
}

type Result struct {
	PageRows           []*domain.ProcessedRow
	TotalFilteredCount int
	TotalPages         int
	PageNumber         int
}

// Project applies, in fixed order over the full set: special-only filter,
// status filter, free-text search, single-key sort, pagination.
func Project(rows []*domain.ProcessedRow, o Options) Result {
	filtered := make([]*domain.ProcessedRow, 0, len(rows))
	statusSet := make(map[domain.Status]struct{}, len(o.StatusFilter))
	for _, s := range o.StatusFilter {
		statusSet[s] = struct{}{}
	}
	term := strings.ToLower(strings.TrimSpace(o.SearchText))

	for _, r := range rows {
		if o.SpecialOnly && !r.Special {
			continue
		}
		if len(statusSet) > 0 {
			if _, ok := statusSet[r.MainStatus]; !ok {
				continue
			}
		}
		if term != "" && !strings.Contains(searchBlob(r), term) {
			continue
		}
		filtered = append(filtered, r)
	}

	sortRows(filtered, o.SortKey, o.SortAscending)

	count := len(filtered)
	pageSize := o.PageSize
	if o.ShowAll || pageSize <= 0 {
		pageSize = count
	}
	if pageSize <= 0 {
		pageSize = 1
	}

	totalPages := (count + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	page := o.PageNumber
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	lo := (page - 1) * pageSize
	hi := min(lo+pageSize, count)
	if lo > count {
		lo = count
	}

	return Result{
		PageRows:           filtered[lo:hi],
		TotalFilteredCount: count,
		TotalPages:         totalPages,
		PageNumber:         page,
	}
}

// searchBlob concatenates every display field, channel text included, so a
// row matches when any field contains the term.
func searchBlob(r *domain.ProcessedRow) string {
	parts := []string{
		strconv.Itoa(r.Seq),
		r.PlanCode,
		r.Name,
		r.Currency,
		r.Unit,
		r.Coverage,
		r.SaleStart,
		r.SaleEnd,
		r.MainStatus.Label(),
		r.DetailText,
		r.StatusNote,
	}
	for _, ch := range r.Channels {
		parts = append(parts, ch.Code, domain.ChannelLabel(ch.Code), ch.Start, ch.End, ch.Status.Label())
	}
	return strings.ToLower(strings.Join(parts, "\t"))
}

func sortRows(rows []*domain.ProcessedRow, key string, ascending bool) {
	if key == "" {
		key = SortSeq
		ascending = true
	}
	// A Collator buffers internally, so each sort gets its own.
	coll := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareKey(coll, rows[i], rows[j], key, ascending)
		if c != 0 {
			return c < 0
		}
		return rows[i].Seq < rows[j].Seq
	})
}

// compareKey returns the direction-adjusted primary comparison. Rows with an
// unparsable date sort last regardless of direction.
func compareKey(coll *collate.Collator, a, b *domain.ProcessedRow, key string, ascending bool) int {
	va := sortValue(a, key)
	vb := sortValue(b, key)

	if dateSortKeys[key] {
		da, okA := domain.ParseDate(va)
		db, okB := domain.ParseDate(vb)
		switch {
		case okA && okB:
			return flip(da.Compare(db), ascending)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	}

	if na, errA := strconv.ParseFloat(va, 64); errA == nil {
		if nb, errB := strconv.ParseFloat(vb, 64); errB == nil {
			switch {
			case na < nb:
				return flip(-1, ascending)
			case na > nb:
				return flip(1, ascending)
			default:
				return 0
			}
		}
	}
	return flip(coll.CompareString(va, vb), ascending)
}

func sortValue(r *domain.ProcessedRow, key string) string {
	switch key {
	case SortSeq:
		return strconv.Itoa(r.Seq)
	case SortPlanCode:
		return r.PlanCode
	case SortName:
		return r.Name
	case SortCurrency:
		return r.Currency
	case SortSaleStart:
		return r.SaleStart
	case SortSaleEnd:
		return r.SaleEnd
	case SortStatus:
		return r.MainStatus.Label()
	default:
		return r.PlanCode
	}
}

func flip(c int, ascending bool) int {
	if ascending {
		return c
	}
	return -c
}
