package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateGeometry is returned for rings with fewer than three distinct
// vertices or without area.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// Ring is a closed sequence of points. The last point connects back to the
// first one; repeating the first point at the end is allowed.
type Ring []Point

// signedArea is positive for counter-clockwise rings.
func (r Ring) signedArea() float64 {
	var s float64
	n := len(r)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		s += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return s / 2
}

// centroid returns the area centroid of a ring with non-zero signed area.
func (r Ring) centroid(signed float64) Point {
	var cx, cy float64
	n := len(r)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		f := r[i].X*r[j].Y - r[j].X*r[i].Y
		cx += (r[i].X + r[j].X) * f
		cy += (r[i].Y + r[j].Y) * f
	}
	return Point{cx / (6 * signed), cy / (6 * signed)}
}

func (r Ring) reversed() Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// clean copies the ring dropping consecutive duplicates and the closing
// point. It fails when fewer than three distinct vertices remain or the
// ring has no area.
func (r Ring) clean() (Ring, error) {
	out := make(Ring, 0, len(r))
	for _, p := range r {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, fmt.Errorf("%w: non-finite coordinate", ErrDegenerateGeometry)
		}
		if len(out) > 0 && out[len(out)-1].near(p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0].near(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return nil, fmt.Errorf("%w: ring has %d distinct vertices", ErrDegenerateGeometry, len(out))
	}
	if math.Abs(out.signedArea()) <= Zeroish {
		return nil, fmt.Errorf("%w: ring has zero area", ErrDegenerateGeometry)
	}
	return out, nil
}

// Polygon is an outer ring with optional holes. The zero value is an empty
// polygon. A Polygon owns its coordinates: constructors copy their input and
// accessors return copies, so a value can be shared between goroutines.
type Polygon struct {
	outer  Ring
	holes  []Ring
	area   float64
	bounds BBox
}

// NewPolygon validates and copies the rings. The outer ring is stored
// counter-clockwise and holes clockwise regardless of input winding.
func NewPolygon(outer Ring, holes ...Ring) (Polygon, error) {
	o, err := outer.clean()
	if err != nil {
		return Polygon{}, fmt.Errorf("outer ring: %w", err)
	}
	if o.signedArea() < 0 {
		o = o.reversed()
	}
	p := Polygon{outer: o, area: o.signedArea(), bounds: boundsOf(o)}

	for i, h := range holes {
		hc, err := h.clean()
		if err != nil {
			return Polygon{}, fmt.Errorf("hole %d: %w", i, err)
		}
		ccw := hc
		if hc.signedArea() < 0 {
			ccw = hc.reversed()
		}
		p.area -= ccw.signedArea()
		p.holes = append(p.holes, ccw.reversed())
	}
	if p.area <= Zeroish {
		return Polygon{}, fmt.Errorf("%w: holes cover the outer ring", ErrDegenerateGeometry)
	}
	return p, nil
}

// Rect returns the axis-aligned rectangle with lower-left corner (x, y).
// It panics when w or h is not positive.
func Rect(x, y, w, h float64) Polygon {
	p, err := NewPolygon(Ring{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}})
	if err != nil {
		panic(fmt.Sprintf("geometry.Rect(%g, %g, %g, %g): %v", x, y, w, h, err))
	}
	return p
}

// IsEmpty reports whether p is the zero Polygon.
func (p Polygon) IsEmpty() bool { return len(p.outer) == 0 }

// Outer returns a copy of the outer ring (counter-clockwise).
func (p Polygon) Outer() Ring {
	return append(Ring(nil), p.outer...)
}

// Holes returns copies of the hole rings (clockwise).
func (p Polygon) Holes() []Ring {
	if len(p.holes) == 0 {
		return nil
	}
	out := make([]Ring, len(p.holes))
	for i, h := range p.holes {
		out[i] = append(Ring(nil), h...)
	}
	return out
}

// NumVertices counts the vertices of all rings.
func (p Polygon) NumVertices() int {
	n := len(p.outer)
	for _, h := range p.holes {
		n += len(h)
	}
	return n
}

// rings iterates the outer ring followed by the holes without copying.
func (p Polygon) rings() []Ring {
	rs := make([]Ring, 0, 1+len(p.holes))
	rs = append(rs, p.outer)
	return append(rs, p.holes...)
}

type polygonJSON struct {
	Outer Ring   `json:"outer"`
	Holes []Ring `json:"holes,omitempty"`
}

// MarshalJSON encodes the polygon as {"outer": [...], "holes": [[...]]}.
func (p Polygon) MarshalJSON() ([]byte, error) {
	return json.Marshal(polygonJSON{Outer: p.outer, Holes: p.holes})
}

// UnmarshalJSON decodes and validates a polygon. An empty or null outer
// ring yields the empty polygon.
func (p *Polygon) UnmarshalJSON(data []byte) error {
	var raw polygonJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Outer) == 0 {
		*p = Polygon{}
		return nil
	}
	poly, err := NewPolygon(raw.Outer, raw.Holes...)
	if err != nil {
		return err
	}
	*p = poly
	return nil
}
