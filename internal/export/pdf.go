package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/hypernest/internal/geometry"
	"github.com/piwi3910/hypernest/internal/model"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	statsHeight  = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// sheetColor is the fill used for sheets and for holes inside parts.
var sheetColor = partColor{R: 210, G: 180, B: 140}

// ExportPDF generates a PDF document containing the nesting result.
// Every used sheet is rendered on its own page with its part outlines,
// followed by a summary page with overall statistics and the settings.
func ExportPDF(path string, result model.NestingResult, settings model.Settings) error {
	used := result.UsedSheets()
	if len(used) == 0 {
		return ErrNothingToExport
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	colors := colorIndex(result)

	for _, sheet := range used {
		pdf.AddPage()
		renderSheetPage(pdf, sheet, result.PlacementsOn(sheet.Slot), colors, settings)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, result, settings)

	return pdf.OutputFileAndClose(path)
}

// sheetView maps sheet coordinates (y up) onto the page (y down).
type sheetView struct {
	scale, offsetX, offsetY, height float64
}

func (v sheetView) point(p geometry.Point) fpdf.PointType {
	return fpdf.PointType{X: v.offsetX + p.X*v.scale, Y: v.offsetY + (v.height-p.Y)*v.scale}
}

func (v sheetView) ring(r geometry.Ring) []fpdf.PointType {
	pts := make([]fpdf.PointType, len(r))
	for i, p := range r {
		pts[i] = v.point(p)
	}
	return pts
}

// renderSheetPage draws a single used sheet on the current PDF page.
func renderSheetPage(pdf *fpdf.Fpdf, sheet model.SheetUsage, placements []model.Placement, colors map[string]int, settings model.Settings) {
	// Title
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Sheet %d: %s #%d (%.0f x %.0f mm)", sheet.Slot+1, sheet.Name, sheet.Copy+1, sheet.Width, sheet.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	// Stats line
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Parts: %d | Used area: %.0f mm² | Total area: %.0f mm² | Utilization: %.1f%%",
		sheet.PartCount, sheet.UsedArea, sheet.TotalArea(), sheet.Utilization*100)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, pdf.UnicodeTranslatorFromDescriptor("")(stats), "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - statsHeight
	scale := math.Min(drawWidth/sheet.Width, drawHeight/sheet.Height)
	canvasW := sheet.Width * scale
	canvasH := sheet.Height * scale

	view := sheetView{
		scale:   scale,
		offsetX: marginLeft + (drawWidth-canvasW)/2,
		offsetY: drawAreaTop,
		height:  sheet.Height,
	}

	// Sheet background
	pdf.SetFillColor(sheetColor.R, sheetColor.G, sheetColor.B)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(view.offsetX, view.offsetY, canvasW, canvasH, "FD")

	drawMargin(pdf, view, sheet, settings.Spacing.Margin)

	for _, p := range placements {
		drawPlacement(pdf, view, p, partColors[colors[p.PartID]])
	}

	drawDimensionAnnotations(pdf, sheet, view.offsetX, view.offsetY, canvasW, canvasH)
	drawPartsLegend(pdf, countByPart(placements), colors, view.offsetY+canvasH+5)
}

// drawMargin outlines the inset parts must stay inside.
func drawMargin(pdf *fpdf.Fpdf, view sheetView, sheet model.SheetUsage, margin float64) {
	if margin <= 0 || 2*margin >= math.Min(sheet.Width, sheet.Height) {
		return
	}
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)
	pdf.SetDashPattern([]float64{1.5, 1}, 0)
	pdf.Rect(view.offsetX+margin*view.scale, view.offsetY+margin*view.scale,
		(sheet.Width-2*margin)*view.scale, (sheet.Height-2*margin)*view.scale, "D")
	pdf.SetDashPattern([]float64{}, 0)
}

// drawPlacement fills the outer ring with the part colour and paints the
// holes back in the sheet colour.
func drawPlacement(pdf *fpdf.Fpdf, view sheetView, p model.Placement, col partColor) {
	pdf.SetFillColor(col.R, col.G, col.B)
	pdf.SetDrawColor(30, 30, 30)
	pdf.SetLineWidth(0.3)
	pdf.Polygon(view.ring(p.Polygon.Outer()), "FD")

	pdf.SetFillColor(sheetColor.R, sheetColor.G, sheetColor.B)
	for _, h := range p.Polygon.Holes() {
		pdf.Polygon(view.ring(h), "FD")
	}

	// Label at the centroid when the outline is large enough
	b := placedBounds(p)
	pw, ph := b.Width()*view.scale, b.Height()*view.scale
	if pw <= 15 || ph <= 8 {
		return
	}
	pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
	pdf.SetTextColor(0, 0, 0)
	label := p.Label
	if p.Angle != 0 {
		label += fmt.Sprintf(" R%g", p.Angle)
	}
	labelW := pdf.GetStringWidth(label)
	if labelW >= pw-2 {
		return
	}
	c := view.point(geometry.Centroid(p.Polygon))
	pdf.SetXY(c.X-labelW/2, c.Y-2)
	pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
}

// drawDimensionAnnotations adds width and height dimension labels outside the sheet rectangle.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, sheet model.SheetUsage, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	// Width annotation (below the sheet)
	widthLabel := fmt.Sprintf("%.0f mm", sheet.Width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	// Height annotation (to the left of the sheet, rotated)
	heightLabel := fmt.Sprintf("%.0f mm", sheet.Height)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawPartsLegend renders one swatch per part with its count on the sheet.
func drawPartsLegend(pdf *fpdf.Fpdf, counts []partCount, colors map[string]int, startY float64) {
	if len(counts) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Parts placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for _, c := range counts {
		col := partColors[colors[c.PartID]]
		label := fmt.Sprintf("%s x%d", c.Label, c.Count)
		labelW := pdf.GetStringWidth(label) + 6

		// Wrap to next line if needed
		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")

		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderSummaryPage draws the final summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, result model.NestingResult, settings model.Settings) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Nesting Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	status := "Feasible"
	if !result.Feasible {
		status = fmt.Sprintf("Infeasible (%d violations)", len(result.Violations))
	}
	if result.Cancelled {
		status += ", cancelled"
	}
	summaryItems := []struct {
		label string
		value string
	}{
		{"Total Sheets Used", fmt.Sprintf("%d of %d", len(result.UsedSheets()), len(result.Sheets))},
		{"Overall Utilization", fmt.Sprintf("%.1f%%", result.Utilization*100)},
		{"Total Parts Placed", fmt.Sprintf("%d", len(result.Placements))},
		{"Unplaced Parts", fmt.Sprintf("%d", len(result.UnplacedParts))},
		{"Layout", status},
		{"Generations Run", fmt.Sprintf("%d", result.Generations)},
		{"Fitness", fmt.Sprintf("%.4f", result.Fitness)},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5

	// Per-sheet breakdown table
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Sheet Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{20, 60, 50, 30, 35, 70}
	headers := []string{"Sheet", "Stock", "Dimensions", "Parts", "Utilization", "Used / Total Area"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, sheet := range result.UsedSheets() {
		xPos = marginLeft
		rowData := []string{
			fmt.Sprintf("%d", sheet.Slot+1),
			fmt.Sprintf("%s #%d", sheet.Name, sheet.Copy+1),
			fmt.Sprintf("%.0f x %.0f mm", sheet.Width, sheet.Height),
			fmt.Sprintf("%d", sheet.PartCount),
			fmt.Sprintf("%.1f%%", sheet.Utilization*100),
			tr(fmt.Sprintf("%.0f / %.0f mm²", sheet.UsedArea, sheet.TotalArea())),
		}

		// Alternate row background
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	if len(result.UnplacedParts) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Unplaced Parts", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, part := range result.UnplacedParts {
			if y > pageHeight-marginBottom-45 {
				pdf.SetXY(marginLeft+5, y)
				pdf.CellFormat(200, 5, "...", "", 0, "L", false, 0, "")
				y += 5
				break
			}
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(200, 5, fmt.Sprintf("- %s (copy %d)", part.Label, part.Instance+1), "", 0, "L", false, 0, "")
			y += 5
		}
	}

	y += 8
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Nesting Settings", "", 0, "L", false, 0, "")
	y += 9

	settingsItems := []struct {
		label string
		value string
	}{
		{"Strategy", settings.Strategy.String()},
		{"Population / Generations", fmt.Sprintf("%d / %d", settings.PopulationSize, settings.Generations)},
		{"Rotation Angles", formatAngles(settings.RotationAngles)},
		{"Part Spacing", fmt.Sprintf("%.1f mm", settings.Spacing.PartToPart)},
		{"Sheet Margin", fmt.Sprintf("%.1f mm", settings.Spacing.Margin)},
		{"Mutation Rate", fmt.Sprintf("%.2f", settings.MutationRate)},
		{"Random Seed", fmt.Sprintf("%d", result.Seed)},
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range settingsItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 5, item.value, "", 0, "L", false, 0, "")
		y += 5
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by HyperNest - 2D Nesting Engine", "", 0, "C", false, 0, "")
}

// formatAngles renders rotations as "0, 90, 180".
func formatAngles(angles []float64) string {
	parts := make([]string, len(angles))
	for i, a := range angles {
		parts[i] = fmt.Sprintf("%g", a)
	}
	return strings.Join(parts, ", ")
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}
