package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"astana/db"
)

const exportSheetName = "Graves"

// exportRequest selects the graves and the fee-year window of a
// spreadsheet export. A zero YearFrom/YearTo pair means the window is
// derived from the data: the observed span of recorded payment years,
// or the configured span ending at the active year when no payments
// exist yet.
type exportRequest struct {
	Search      string `json:"search"`
	BlockID     int64  `json:"block_id"`
	YearFrom    int64  `json:"year_from"`
	YearTo      int64  `json:"year_to"`
	Destination string `json:"destination"`
}

// ExportResult reports where an export was written and how many grave
// rows it holds.
type ExportResult struct {
	Destination string `json:"destination"`
	Rows        int    `json:"rows"`
}

func handleExportGraves(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error) {
	var req exportRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if req.Destination == "" {
		return nil, fmt.Errorf("export destination is required")
	}

	return d.withStore(func(store *db.DB) (any, error) {
		exports, err := store.ExportGravesWithHeirsAndPayments(ctx, db.GraveFilter{Search: req.Search, BlockID: req.BlockID})
		if err != nil {
			return nil, err
		}

		yearFrom, yearTo := req.YearFrom, req.YearTo
		if yearFrom == 0 || yearTo == 0 {
			settings, err := store.GetSettings(ctx)
			if err != nil {
				return nil, err
			}
			yearFrom, yearTo = exportYearRange(exports, settings.ActiveYear, int64(d.Config().ExportYearSpan))
		}
		if yearFrom > yearTo {
			yearFrom, yearTo = yearTo, yearFrom
		}

		if err := writeExportWorkbook(req.Destination, exports, yearFrom, yearTo); err != nil {
			return nil, err
		}
		d.logger.Info("export written",
			"destination", req.Destination, "rows", len(exports),
			"year_from", yearFrom, "year_to", yearTo)
		return ExportResult{Destination: req.Destination, Rows: len(exports)}, nil
	})
}

// exportYearRange derives the fee-year window of an export from the
// recorded payments: the span from the earliest to the latest paid year.
// With no payments at all the window is the span fee years ending at
// activeYear.
func exportYearRange(exports []db.GraveExport, activeYear, span int64) (int64, int64) {
	var minYear, maxYear int64
	for _, export := range exports {
		for _, payment := range export.Payments {
			if minYear == 0 || payment.Year < minYear {
				minYear = payment.Year
			}
			if payment.Year > maxYear {
				maxYear = payment.Year
			}
		}
	}
	if minYear == 0 {
		if span < 1 {
			span = 1
		}
		return activeYear - span + 1, activeYear
	}
	return minYear, maxYear
}

// writeExportWorkbook writes the export dataset as a single-sheet
// spreadsheet: one row per grave, fixed identity columns followed by
// one paid-amount column per fee year in the window.
func writeExportWorkbook(destination string, exports []db.GraveExport, yearFrom, yearTo int64) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return fmt.Errorf("could not name export sheet: %w", err)
	}

	header := []any{"No", "Block", "Number", "Deceased Name", "Date of Death", "Burial Date", "Primary Heir", "Heir Phone"}
	for year := yearFrom; year <= yearTo; year++ {
		header = append(header, strconv.FormatInt(year, 10))
	}
	header = append(header, "Notes")

	if err := setRow(f, 1, header); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("could not build header style: %w", err)
	}
	lastCell, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("could not address header row: %w", err)
	}
	if err := f.SetCellStyle(exportSheetName, "A1", lastCell, headerStyle); err != nil {
		return fmt.Errorf("could not style header row: %w", err)
	}

	for i, export := range exports {
		primary := primaryHeir(export.Heirs)
		row := []any{
			i + 1,
			export.BlockCode,
			export.Number,
			export.DeceasedName,
			export.DateOfDeath,
			export.BurialDate,
			primary.FullName,
			primary.PhoneNumber,
		}

		byYear := make(map[int64]db.Payment, len(export.Payments))
		for _, payment := range export.Payments {
			byYear[payment.Year] = payment
		}
		for year := yearFrom; year <= yearTo; year++ {
			if payment, ok := byYear[year]; ok {
				row = append(row, payment.Amount)
			} else {
				row = append(row, "")
			}
		}
		row = append(row, export.Notes)

		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(exportSheetName, "B", "F", 16); err != nil {
		return fmt.Errorf("could not size export columns: %w", err)
	}
	if err := f.SetColWidth(exportSheetName, "D", "D", 28); err != nil {
		return fmt.Errorf("could not size export columns: %w", err)
	}

	if err := f.SaveAs(destination); err != nil {
		return fmt.Errorf("could not write export to %s: %w", destination, err)
	}
	return nil
}

// setRow writes one spreadsheet row, columns in slice order.
func setRow(f *excelize.File, rowNo int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return fmt.Errorf("could not address row %d: %w", rowNo, err)
	}
	if err := f.SetSheetRow(exportSheetName, cell, &values); err != nil {
		return fmt.Errorf("could not write row %d: %w", rowNo, err)
	}
	return nil
}

// primaryHeir picks the heir flagged primary, falling back to the first
// listed heir. The zero Heir stands in for a grave with no heirs.
func primaryHeir(heirs []db.Heir) db.Heir {
	for _, heir := range heirs {
		if heir.IsPrimary {
			return heir
		}
	}
	if len(heirs) > 0 {
		return heirs[0]
	}
	return db.Heir{}
}
