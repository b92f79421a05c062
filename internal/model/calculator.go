package model

import (
	"math"

	"github.com/piwi3910/hypernest/internal/geometry"
)

// SheetEstimate is an area-based lower bound on the stock needed for a
// part list, used to sanity-check a nesting result.
type SheetEstimate struct {
	TotalPartArea     float64 `json:"total_part_area"`     // Area of all instances including spacing allowance (sq mm)
	SheetArea         float64 `json:"sheet_area"`          // Usable area of one sheet inside the margin (sq mm)
	SheetsNeededExact float64 `json:"sheets_needed_exact"` // Exact fractional number of sheets
	SheetsNeededMin   int     `json:"sheets_needed_min"`   // Minimum sheets (ceiling of exact)
	SheetsWithWaste   int     `json:"sheets_with_waste"`   // Recommended sheets including waste factor
	WastePercent      float64 `json:"waste_percent"`       // Waste factor applied (e.g., 15 for 15%)
}

// EstimateSheets computes how many copies of sheet a part list needs at
// least. Each instance is charged its bounding box grown by the part spacing;
// the sheet is charged only the area inside its margin.
func EstimateSheets(parts []Part, sheet Sheet, spacing Spacing, wastePercent float64) SheetEstimate {
	var totalPartArea float64
	for _, p := range parts {
		if p.Outline.IsEmpty() || p.Quantity <= 0 {
			continue
		}
		b := geometry.Bounds(p.Outline)
		partW := b.Width() + spacing.PartToPart
		partH := b.Height() + spacing.PartToPart
		totalPartArea += partW * partH * float64(p.Quantity)
	}

	usableW := sheet.Width - 2*spacing.Margin
	usableH := sheet.Height - 2*spacing.Margin
	if usableW <= 0 || usableH <= 0 {
		return SheetEstimate{
			TotalPartArea: totalPartArea,
			WastePercent:  wastePercent,
		}
	}
	sheetArea := usableW * usableH

	exactSheets := totalPartArea / sheetArea
	minSheets := int(math.Ceil(exactSheets))

	// Apply waste factor
	wasteFactor := 1.0 + (wastePercent / 100.0)
	sheetsWithWaste := int(math.Ceil(exactSheets * wasteFactor))
	if sheetsWithWaste < minSheets {
		sheetsWithWaste = minSheets
	}

	return SheetEstimate{
		TotalPartArea:     totalPartArea,
		SheetArea:         sheetArea,
		SheetsNeededExact: exactSheets,
		SheetsNeededMin:   minSheets,
		SheetsWithWaste:   sheetsWithWaste,
		WastePercent:      wastePercent,
	}
}
