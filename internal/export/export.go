// Package export writes nesting results to PDF, label sheets, reports,
// spreadsheets and DXF drawings.
package export

import (
	"errors"
	"sort"

	"github.com/piwi3910/hypernest/internal/geometry"
	"github.com/piwi3910/hypernest/internal/model"
)

// ErrNothingToExport is returned when a result has no placed parts.
var ErrNothingToExport = errors.New("no placed parts to export")

// partColor represents an RGB color for a placed part.
type partColor struct {
	R, G, B int
}

// partColors is the palette parts are drawn with, assigned per part ID.
var partColors = []partColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// colorIndex maps every part ID in the result to a palette index in order
// of first appearance, so a part has the same colour on every sheet.
func colorIndex(result model.NestingResult) map[string]int {
	idx := make(map[string]int)
	for _, p := range result.Placements {
		if _, ok := idx[p.PartID]; !ok {
			idx[p.PartID] = len(idx) % len(partColors)
		}
	}
	return idx
}

// placedBounds returns the bounding box of a placement in sheet coordinates.
func placedBounds(p model.Placement) geometry.BBox {
	return geometry.Bounds(p.Polygon)
}

// partCount is the number of placements of one part on a sheet.
type partCount struct {
	PartID string
	Label  string
	Count  int
}

// countByPart groups placements by part, ordered by label then ID.
func countByPart(placements []model.Placement) []partCount {
	byID := make(map[string]*partCount)
	var out []*partCount
	for _, p := range placements {
		c, ok := byID[p.PartID]
		if !ok {
			c = &partCount{PartID: p.PartID, Label: p.Label}
			byID[p.PartID] = c
			out = append(out, c)
		}
		c.Count++
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].PartID < out[j].PartID
	})
	counts := make([]partCount, len(out))
	for i, c := range out {
		counts[i] = *c
	}
	return counts
}

// areaOf returns the area of a placed outline.
func areaOf(p model.Placement) float64 {
	return geometry.Area(p.Polygon)
}
