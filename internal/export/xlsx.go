package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/hypernest/internal/model"
)

const (
	summarySheet    = "Summary"
	placementsSheet = "Placements"
)

// ExportXLSX writes a workbook with a "Summary" sheet (one row per sheet slot
// plus totals) and a "Placements" sheet (one row per placed or unplaced
// instance).
func ExportXLSX(path string, result model.NestingResult) error {
	if len(result.Placements) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(placementsSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := writeSummarySheet(f, result, bold); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := writePlacementsSheet(f, result, bold); err != nil {
		return fmt.Errorf("placements sheet: %w", err)
	}

	return f.SaveAs(path)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, result model.NestingResult, header int) error {
	rows := [][]any{
		{"Sheet", "Stock", "Copy", "Width (mm)", "Height (mm)", "Parts", "Used Area (mm²)", "Utilization (%)"},
	}
	for _, s := range result.Sheets {
		rows = append(rows, []any{s.Slot + 1, s.Name, s.Copy + 1, s.Width, s.Height, s.PartCount, s.UsedArea, s.Utilization * 100})
	}
	rows = append(rows,
		[]any{},
		[]any{"Sheets Used", len(result.UsedSheets())},
		[]any{"Overall Utilization (%)", result.Utilization * 100},
		[]any{"Unplaced Parts", len(result.UnplacedParts)},
		[]any{"Feasible", result.Feasible},
		[]any{"Generations", result.Generations},
		[]any{"Strategy", result.Strategy.String()},
		[]any{"Seed", result.Seed},
	)
	if err := writeRows(f, summarySheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "H1", header); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "H", 18)
}

func writePlacementsSheet(f *excelize.File, result model.NestingResult, header int) error {
	rows := [][]any{
		{"Part ID", "Part", "Copy", "Sheet", "Stock", "X (mm)", "Y (mm)", "Angle (deg)", "Area (mm²)"},
	}
	for _, p := range result.Placements {
		sheet := result.Sheets[p.Sheet]
		b := placedBounds(p)
		rows = append(rows, []any{p.PartID, p.Label, p.Instance + 1, p.Sheet + 1, sheet.Name, b.Min.X, b.Min.Y, p.Angle, areaOf(p)})
	}
	for _, u := range result.UnplacedParts {
		rows = append(rows, []any{u.PartID, u.Label, u.Instance + 1, "unplaced"})
	}
	if err := writeRows(f, placementsSheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(placementsSheet, "A1", "I1", header); err != nil {
		return err
	}
	return f.SetColWidth(placementsSheet, "A", "I", 14)
}
