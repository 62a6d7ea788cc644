package commands

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"astana/db"
)

func Test_ExportYearRange(t *testing.T) {
	withPayments := []db.GraveExport{
		{Payments: []db.Payment{{Year: 2023}, {Year: 2025}}},
		{Payments: []db.Payment{{Year: 2021}}},
		{},
	}

	tests := []struct {
		name       string
		exports    []db.GraveExport
		activeYear int64
		span       int64
		from, to   int64
	}{
		{
			name:       "observed span",
			exports:    withPayments,
			activeYear: 2026,
			span:       5,
			from:       2021,
			to:         2025,
		},
		{
			name:       "no payments falls back to the active year span",
			exports:    []db.GraveExport{{}},
			activeYear: 2026,
			span:       5,
			from:       2022,
			to:         2026,
		},
		{
			name:       "no records at all",
			exports:    nil,
			activeYear: 2026,
			span:       3,
			from:       2024,
			to:         2026,
		},
		{
			name:       "degenerate span clamps to one year",
			exports:    nil,
			activeYear: 2026,
			span:       0,
			from:       2026,
			to:         2026,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := exportYearRange(tt.exports, tt.activeYear, tt.span)
			if from != tt.from || to != tt.to {
				t.Errorf("range got %d..%d want %d..%d", from, to, tt.from, tt.to)
			}
		})
	}
}

// Test_ExportWorkbook runs a full export through the command path and
// reads the workbook back.
func Test_ExportWorkbook(t *testing.T) {
	d := newTestDispatcher(t)

	var blockID int64
	mustDispatch(t, d, "create_block", db.CreateBlockRequest{
		Code: "A1", TotalCapacity: 10, AnnualFee: 150000, Status: "active",
	}, &blockID)
	var graveID int64
	mustDispatch(t, d, "create_grave_with_heirs", map[string]any{
		"grave": map[string]any{
			"deceased_name": "Ahmad Subarjo",
			"block_id":      blockID,
			"number":        "A1-001",
			"date_of_death": "2024-01-15",
		},
		"heirs": []map[string]any{
			{"order_number": 1, "full_name": "Siti Subarjo", "is_primary": true, "phone_number": "0812000001"},
		},
	}, &graveID)
	mustDispatch(t, d, "create_payment", db.CreatePaymentRequest{
		GraveID: graveID, Year: 2025, PaymentDate: "2025-02-01", Amount: 150000,
	}, nil)

	destination := filepath.Join(t.TempDir(), "export.xlsx")
	var result ExportResult
	mustDispatch(t, d, "export_graves", map[string]any{
		"destination": destination,
		"year_from":   2024,
		"year_to":     2025,
	}, &result)
	if got, want := result.Rows, 1; got != want {
		t.Errorf("row count got %d want %d", got, want)
	}

	f, err := excelize.OpenFile(destination)
	if err != nil {
		t.Fatalf("could not open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheetName)
	if err != nil {
		t.Fatalf("could not read sheet: %v", err)
	}
	// a header row plus one grave row.
	if got, want := len(rows), 2; got != want {
		t.Fatalf("sheet row count got %d want %d", got, want)
	}

	header := rows[0]
	if got, want := header[len(header)-1], "Notes"; got != want {
		t.Errorf("last header got %s want %s", got, want)
	}
	// the year window contributes one column per year.
	if got, want := header[8], "2024"; got != want {
		t.Errorf("first year column got %s want %s", got, want)
	}
	if got, want := header[9], "2025"; got != want {
		t.Errorf("second year column got %s want %s", got, want)
	}

	record := rows[1]
	if got, want := record[3], "Ahmad Subarjo"; got != want {
		t.Errorf("deceased name got %s want %s", got, want)
	}
	if got, want := record[6], "Siti Subarjo"; got != want {
		t.Errorf("primary heir got %s want %s", got, want)
	}
	if got, want := record[9], "150000"; got != want {
		t.Errorf("paid year cell got %s want %s", got, want)
	}
}

func Test_PrimaryHeir(t *testing.T) {
	heirs := []db.Heir{
		{FullName: "Second", IsPrimary: false},
		{FullName: "Primary", IsPrimary: true},
	}
	if got, want := primaryHeir(heirs).FullName, "Primary"; got != want {
		t.Errorf("primary heir got %s want %s", got, want)
	}
	if got, want := primaryHeir(heirs[:1]).FullName, "Second"; got != want {
		t.Errorf("fallback heir got %s want %s", got, want)
	}
	if got := primaryHeir(nil).FullName; got != "" {
		t.Errorf("no-heir fallback got %q want empty", got)
	}
}
