package export

import (
	"strings"
	"testing"

	"planscope/internal/domain"
)

func sampleRows() []*domain.ProcessedRow {
	return []*domain.ProcessedRow{
		{
			Seq:        1,
			PlanCode:   "A1",
			Name:       "plan a",
			Currency:   "台幣",
			Unit:       "元",
			Coverage:   "主約",
			SaleStart:  "2020-01-01",
			SaleEnd:    "9999-12-31",
			MainStatus: domain.StatusInSale,
			DetailText: "rate x, rate y",
			Channels: []domain.ChannelView{
				{Code: "AG", End: "2025-06-01", Status: domain.StatusStopped},
				{Code: "BK", End: "9999-12-31", Status: domain.StatusInSale},
			},
			Special: true,
		},
		{
			Seq:        2,
			PlanCode:   "X9",
			Name:       "-",
			Currency:   "-",
			Unit:       "-",
			Coverage:   "-",
			SaleStart:  "-",
			SaleEnd:    "-",
			DetailText: "-",
			IsErrorRow: true,
			StatusNote: domain.NoteNotFound,
		},
	}
}

func TestTSVLayout(t *testing.T) {
	out := TSV(sampleRows())
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}

	if !strings.HasPrefix(lines[0], "序號\t險種代碼") {
		t.Fatalf("header = %q", lines[0])
	}

	cols := strings.Split(lines[1], "\t")
	if len(cols) != len(strings.Split(lines[0], "\t")) {
		t.Fatalf("row width %d != header width", len(cols))
	}
	if cols[1] != "A1" || cols[8] != "現售" || cols[9] != "Y" {
		t.Fatalf("row 1 = %v", cols)
	}
}

func TestFlattenChannelsFormat(t *testing.T) {
	got := FlattenChannels(sampleRows()[0].Channels)
	want := "AG:2025-06-01(停售) / BK:9999-12-31(現售)"
	if got != want {
		t.Fatalf("FlattenChannels = %q, want %q", got, want)
	}
}

func TestErrorRowShowsStatusNote(t *testing.T) {
	table := Table(sampleRows())
	errRow := table[2]
	if errRow[8] != domain.NoteNotFound {
		t.Fatalf("error row status column = %q, want %q", errRow[8], domain.NoteNotFound)
	}
}

func TestWorkbookRoundTrip(t *testing.T) {
	wb, err := Workbook(sampleRows())
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	defer func() { _ = wb.Close() }()

	got, err := wb.GetCellValue("Sheet1", "B2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if got != "A1" {
		t.Fatalf("B2 = %q, want A1", got)
	}
}
