package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/hypernest/internal/geometry"
	"github.com/piwi3910/hypernest/internal/model"
)

// sheetGap is the horizontal distance between sheets in the drawing, mm.
const sheetGap = 100.0

// dxfColors cycles through the standard ACI colours for part layers.
var dxfColors = []color.ColorNumber{color.Red, color.Yellow, color.Green, color.Cyan, color.Blue, color.Magenta}

// SheetLayer is the DXF layer name holding the outlines of a sheet slot.
func SheetLayer(slot int) string {
	return fmt.Sprintf("SHEET_%d", slot+1)
}

// ExportDXF draws every used sheet side by side: the sheet boundary and
// every part ring become closed LWPOLYLINEs on the sheet's layer, with a
// TEXT label at each part centroid.
func ExportDXF(path string, result model.NestingResult) error {
	used := result.UsedSheets()
	if len(used) == 0 {
		return ErrNothingToExport
	}

	d := dxf.NewDrawing()
	offsetX := 0.0
	for i, sheet := range used {
		if _, err := d.AddLayer(SheetLayer(sheet.Slot), dxfColors[i%len(dxfColors)], dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("add layer: %w", err)
		}

		boundary := geometry.Ring{{X: 0, Y: 0}, {X: sheet.Width, Y: 0}, {X: sheet.Width, Y: sheet.Height}, {X: 0, Y: sheet.Height}}
		if err := drawRing(d, boundary, offsetX); err != nil {
			return err
		}
		if _, err := d.Text(fmt.Sprintf("%s #%d", sheet.Name, sheet.Copy+1), offsetX, sheet.Height+10, 0, 20); err != nil {
			return err
		}

		for _, p := range result.PlacementsOn(sheet.Slot) {
			if err := drawRing(d, p.Polygon.Outer(), offsetX); err != nil {
				return err
			}
			for _, h := range p.Polygon.Holes() {
				if err := drawRing(d, h, offsetX); err != nil {
					return err
				}
			}
			c := geometry.Centroid(p.Polygon)
			if _, err := d.Text(fmt.Sprintf("%s #%d", p.Label, p.Instance+1), c.X+offsetX, c.Y, 0, textHeight(p)); err != nil {
				return err
			}
		}
		offsetX += sheet.Width + sheetGap
	}

	return d.SaveAs(path)
}

func drawRing(d *drawing.Drawing, r geometry.Ring, offsetX float64) error {
	vertices := make([][]float64, len(r))
	for i, p := range r {
		vertices[i] = []float64{p.X + offsetX, p.Y}
	}
	if _, err := d.LwPolyline(true, vertices...); err != nil {
		return fmt.Errorf("add polyline: %w", err)
	}
	return nil
}

// textHeight scales part labels to the part, between 2 and 20 mm.
func textHeight(p model.Placement) float64 {
	b := placedBounds(p)
	h := min(b.Width(), b.Height()) / 8
	return max(2, min(h, 20))
}
