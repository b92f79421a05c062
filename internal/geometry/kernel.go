package geometry

import (
	"math"

	"github.com/ctessum/geom"
)

// Area returns the area of the outer ring minus its holes. It is never
// negative.
func Area(p Polygon) float64 {
	return p.area
}

// Bounds returns the axis-aligned bounding box of the outer ring.
func Bounds(p Polygon) BBox {
	return p.bounds
}

// Centroid returns the area centroid of the polygon, holes subtracted.
func Centroid(p Polygon) Point {
	if p.IsEmpty() {
		return Point{}
	}
	oa := p.outer.signedArea()
	oc := p.outer.centroid(oa)
	mx, my, total := oc.X*oa, oc.Y*oa, oa
	for _, h := range p.holes {
		ha := -h.signedArea() // holes are stored clockwise
		hc := h.centroid(-ha)
		mx -= hc.X * ha
		my -= hc.Y * ha
		total -= ha
	}
	return Point{mx / total, my / total}
}

// Transform returns p rotated counter-clockwise by angle degrees about its
// centroid and then translated by (dx, dy).
func Transform(p Polygon, angle, dx, dy float64) Polygon {
	if p.IsEmpty() {
		return Polygon{}
	}
	m := identity
	if math.Mod(angle, 360) != 0 {
		m = rotateAbout(angle, Centroid(p))
	}
	m = m.then(translation(dx, dy))
	return p.apply(m)
}

// Translate shifts p by (dx, dy).
func Translate(p Polygon, dx, dy float64) Polygon {
	return Transform(p, 0, dx, dy)
}

func (p Polygon) apply(m affine) Polygon {
	out := Polygon{area: p.area}
	out.outer = applyRing(p.outer, m)
	out.bounds = boundsOf(out.outer)
	if len(p.holes) > 0 {
		out.holes = make([]Ring, len(p.holes))
		for i, h := range p.holes {
			out.holes[i] = applyRing(h, m)
		}
	}
	return out
}

func applyRing(r Ring, m affine) Ring {
	out := make(Ring, len(r))
	for i, pt := range r {
		out[i] = m.apply(pt)
	}
	return out
}

// IntersectionArea returns the area of a ∩ b, holes included.
func IntersectionArea(a, b Polygon) float64 {
	if a.IsEmpty() || b.IsEmpty() || !a.bounds.Overlaps(b.bounds) {
		return 0
	}
	if less(b, a) {
		a, b = b, a
	}
	return math.Max(toGeom(a).Intersection(toGeom(b)).Area(), 0)
}

// toGeom converts p to a ctessum/geom polygon with closed rings.
func toGeom(p Polygon) geom.Polygon {
	out := make(geom.Polygon, 0, 1+len(p.holes))
	for _, r := range p.rings() {
		out = append(out, toPath(r))
	}
	return out
}

// less orders polygons so that symmetric operations run the same
// floating-point sequence regardless of argument order.
func less(a, b Polygon) bool {
	switch {
	case a.bounds.Min.X != b.bounds.Min.X:
		return a.bounds.Min.X < b.bounds.Min.X
	case a.bounds.Min.Y != b.bounds.Min.Y:
		return a.bounds.Min.Y < b.bounds.Min.Y
	case a.bounds.Max.X != b.bounds.Max.X:
		return a.bounds.Max.X < b.bounds.Max.X
	case a.bounds.Max.Y != b.bounds.Max.Y:
		return a.bounds.Max.Y < b.bounds.Max.Y
	default:
		return a.area < b.area
	}
}

// areaTolerance is the intersection area treated as touching.
func areaTolerance(a, b Polygon) float64 {
	return 1e-9 * math.Max(1, math.Min(a.area, b.area))
}

// Distance returns the minimum distance between the boundaries of a and b.
// It is zero when the boundaries touch or cross. A polygon lying inside
// another without touching reports the gap to the enclosing boundary.
func Distance(a, b Polygon) float64 {
	if a.IsEmpty() || b.IsEmpty() {
		return math.Inf(1)
	}
	best := math.Inf(1)
	for _, ra := range a.rings() {
		for _, rb := range b.rings() {
			if d := ringDistance(ra, rb, best); d < best {
				best = d
				if best == 0 {
					return 0
				}
			}
		}
	}
	return best
}

func ringDistance(a, b Ring, limit float64) float64 {
	best := limit
	for i := range a {
		p1, p2 := a[i], a[(i+1)%len(a)]
		for j := range b {
			q1, q2 := b[j], b[(j+1)%len(b)]
			if d := segmentDistance(p1, p2, q1, q2); d < best {
				best = d
				if best == 0 {
					return 0
				}
			}
		}
	}
	return best
}

func segmentDistance(p1, p2, q1, q2 Point) float64 {
	if segmentsIntersect(p1, p2, q1, q2) {
		return 0
	}
	return math.Min(
		math.Min(pointSegmentDistance(p1, q1, q2), pointSegmentDistance(p2, q1, q2)),
		math.Min(pointSegmentDistance(q1, p1, p2), pointSegmentDistance(q2, p1, p2)),
	)
}

func segmentsIntersect(p1, p2, q1, q2 Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

func pointSegmentDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return p.Distance(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Distance(Point{a.X + t*dx, a.Y + t*dy})
}

// Penetration measures how badly a and b violate clearance. It is zero
// exactly when Overlaps reports false and grows with the overlap: the
// shared area plus clearance*(clearance-gap) for pairs closer than
// clearance.
func Penetration(a, b Polygon, clearance float64) float64 {
	if a.IsEmpty() || b.IsEmpty() {
		return 0
	}
	clearance = math.Max(clearance, 0)
	half := clearance / 2
	if !a.bounds.Expand(half).Overlaps(b.bounds.Expand(half)) {
		return 0
	}
	if less(b, a) {
		a, b = b, a
	}
	var pen float64
	if inter := IntersectionArea(a, b); inter > areaTolerance(a, b) {
		pen = inter
	}
	if clearance > 0 {
		// gaps within Zeroish of the clearance count as kept
		if gap := Distance(a, b); gap < clearance-Zeroish {
			pen += math.Max(clearance*(clearance-gap), math.SmallestNonzeroFloat64)
		}
	}
	return pen
}

// Overlaps reports whether a and b, each grown by clearance/2, share a
// region of positive area. Touching boundaries do not overlap.
func Overlaps(a, b Polygon, clearance float64) bool {
	return Penetration(a, b, clearance) > 0
}

// Contains reports whether inner lies entirely within outer. Shared
// boundaries are allowed. Every vertex of inner must lie in outer and no
// area may stick out between vertices.
func Contains(outer, inner Polygon) bool {
	if inner.IsEmpty() || outer.IsEmpty() || !outer.bounds.Expand(Zeroish).ContainsBox(inner.bounds) {
		return false
	}
	if toGeom(inner).Within(toGeom(outer)) == geom.Outside {
		return false
	}
	return OutsideArea(outer, inner) == 0
}

// OutsideArea returns the part of inner's area that falls outside outer,
// with touching-level noise reported as zero.
func OutsideArea(outer, inner Polygon) float64 {
	if inner.IsEmpty() {
		return 0
	}
	if outer.IsEmpty() {
		return inner.area
	}
	if !outer.bounds.ContainsBox(inner.bounds) && !outer.bounds.Overlaps(inner.bounds) {
		return inner.area
	}
	out := inner.area - IntersectionArea(outer, inner)
	if out <= 1e-9*math.Max(1, inner.area) {
		return 0
	}
	return out
}
