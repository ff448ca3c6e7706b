// Package export renders a projected row set for the clipboard (TSV) or as
// an Excel workbook. Both surfaces share one tabular layout; channel windows
// flatten to "CH:endDate(status) / CH:endDate(status) ...".
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"planscope/internal/domain"
)

var header = []string{
	"序號",
	"險種代碼",
	"險種名稱",
	"幣別",
	"保費單位",
	"主附約",
	"銷售起日",
	"銷售迄日",
	"狀態",
	"特殊",
	"費率明細",
	"通路",
}

// Table renders the header row plus one row per ProcessedRow.
func Table(rows []*domain.ProcessedRow) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, header)
	for _, r := range rows {
		out = append(out, tableRow(r))
	}
	return out
}

func tableRow(r *domain.ProcessedRow) []string {
	statusText := r.MainStatus.Label()
	if r.IsErrorRow {
		statusText = r.StatusNote
	}
	special := ""
	if r.Special {
		special = "Y"
	}
	return []string{
		fmt.Sprintf("%d", r.Seq),
		r.PlanCode,
		r.Name,
		r.Currency,
		r.Unit,
		r.Coverage,
		r.SaleStart,
		r.SaleEnd,
		statusText,
		special,
		r.DetailText,
		FlattenChannels(r.Channels),
	}
}

// FlattenChannels renders channel windows in the copy format.
func FlattenChannels(channels []domain.ChannelView) string {
	parts := make([]string, 0, len(channels))
	for _, ch := range channels {
		parts = append(parts, fmt.Sprintf("%s:%s(%s)", ch.Code, ch.End, ch.Status.Label()))
	}
	return strings.Join(parts, " / ")
}

// TSV renders the table as tab-separated text, one line per row.
func TSV(rows []*domain.ProcessedRow) string {
	table := Table(rows)
	lines := make([]string, 0, len(table))
	for _, row := range table {
		lines = append(lines, strings.Join(row, "\t"))
	}
	return strings.Join(lines, "\n")
}

// Workbook renders the table as a single-sheet xlsx file.
func Workbook(rows []*domain.ProcessedRow) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Sheet1"

	for rowIdx, row := range Table(rows) {
		for colIdx, val := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}
