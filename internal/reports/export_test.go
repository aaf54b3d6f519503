package reports

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"
)

func TestWriteDashboardCSV(t *testing.T) {
	dash := Dashboard{
		TotalCases: 10,
		OpenCases:  4,
		ByStatus:   []BreakdownEntry{{Label: "new", Count: 3}, {Label: "closed", Count: 7}},
		ByType:     []BreakdownEntry{{Label: "theft", Count: 5}},
		ByPriority: []BreakdownEntry{{Label: "high", Count: 2}},
		GeneratedAt: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
	}
	buf := &bytes.Buffer{}
	if err := WriteDashboardCSV(buf, dash); err != nil {
		t.Fatalf("dashboard csv error: %v", err)
	}
	reader := csv.NewReader(bytes.NewReader(buf.Bytes()))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	// header + 2 summary rows + 4 breakdown rows
	if len(records) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(records))
	}
	if records[1][2] != "10" {
		t.Fatalf("expected total cases 10, got %q", records[1][2])
	}
}

func TestWriteTrendCSV(t *testing.T) {
	points := []TrendPoint{
		{Period: "2026-02", Opened: 3, Closed: 1},
		{Period: "2026-03", Opened: 5, Closed: 4},
	}
	buf := &bytes.Buffer{}
	if err := WriteTrendCSV(buf, points); err != nil {
		t.Fatalf("trend csv error: %v", err)
	}
	reader := csv.NewReader(bytes.NewReader(buf.Bytes()))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(records))
	}
	if records[2][1] != "5" {
		t.Fatalf("expected opened count 5, got %q", records[2][1])
	}
}
