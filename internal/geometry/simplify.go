package geometry

import (
	"fmt"

	"github.com/ctessum/geom"
)

// Simplify removes vertices that deviate less than tolerance from the
// outline (Douglas-Peucker on every ring). Outlines coming from CAD arcs
// often carry far more vertices than the nesting precision needs. A hole
// that collapses is dropped; an outer ring that collapses is an error.
func Simplify(p Polygon, tolerance float64) (Polygon, error) {
	if p.IsEmpty() || tolerance <= 0 {
		return p, nil
	}
	simplified, ok := toGeom(p).Simplify(tolerance).(geom.Polygon)
	if !ok || len(simplified) == 0 {
		return Polygon{}, fmt.Errorf("%w: simplify removed the outline", ErrDegenerateGeometry)
	}

	outer := fromPath(simplified[0])
	var holes []Ring
	for _, path := range simplified[1:] {
		h := fromPath(path)
		if _, err := h.clean(); err != nil {
			continue
		}
		holes = append(holes, h)
	}
	out, err := NewPolygon(outer, holes...)
	if err != nil {
		return Polygon{}, fmt.Errorf("simplify: %w", err)
	}
	return out, nil
}

func toPath(r Ring) geom.Path {
	path := make(geom.Path, 0, len(r)+1)
	for _, pt := range r {
		path = append(path, geom.Point{X: pt.X, Y: pt.Y})
	}
	// ctessum/geom expects closed rings
	return append(path, geom.Point{X: r[0].X, Y: r[0].Y})
}

func fromPath(path geom.Path) Ring {
	r := make(Ring, len(path))
	for i, pt := range path {
		r[i] = Point{X: pt.X, Y: pt.Y}
	}
	return r
}
