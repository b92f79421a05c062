// Package geometry is the planar kernel used by the nesting engine.
//
// Conventions: x increases to the right and y increases up, so a positive
// rotation angle turns the shape counter-clockwise. Every operation returns
// a new value; inputs are never mutated.
package geometry

import "math"

// Zeroish is the distance below which two coordinates are considered equal.
// It absorbs rounding error for values expressed in millimeters.
const Zeroish = 1e-9

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p Point) near(q Point) bool {
	return math.Abs(p.X-q.X) <= Zeroish && math.Abs(p.Y-q.Y) <= Zeroish
}

// cross returns the z component of (a-o) x (b-o). It is positive when
// o->a->b turns counter-clockwise.
func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Width of the box.
func (b BBox) Width() float64 { return b.Max.X - b.Min.X }

// Height of the box.
func (b BBox) Height() float64 { return b.Max.Y - b.Min.Y }

// Area of the box.
func (b BBox) Area() float64 { return b.Width() * b.Height() }

// Expand grows the box by d on every side. Negative d shrinks it.
func (b BBox) Expand(d float64) BBox {
	return BBox{
		Min: Point{b.Min.X - d, b.Min.Y - d},
		Max: Point{b.Max.X + d, b.Max.Y + d},
	}
}

// Translate shifts the box by dx, dy.
func (b BBox) Translate(dx, dy float64) BBox {
	return BBox{
		Min: Point{b.Min.X + dx, b.Min.Y + dy},
		Max: Point{b.Max.X + dx, b.Max.Y + dy},
	}
}

// Overlaps reports whether the boxes share a region of positive area.
// Boxes that only touch along an edge do not overlap.
func (b BBox) Overlaps(o BBox) bool {
	return b.Min.X < o.Max.X-Zeroish && o.Min.X < b.Max.X-Zeroish &&
		b.Min.Y < o.Max.Y-Zeroish && o.Min.Y < b.Max.Y-Zeroish
}

// OverlapArea returns the area shared by the two boxes.
func (b BBox) OverlapArea(o BBox) float64 {
	w := math.Min(b.Max.X, o.Max.X) - math.Max(b.Min.X, o.Min.X)
	h := math.Min(b.Max.Y, o.Max.Y) - math.Max(b.Min.Y, o.Min.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// ContainsBox reports whether o lies inside b, touching allowed.
func (b BBox) ContainsBox(o BBox) bool {
	const tol = 1e-7
	return o.Min.X >= b.Min.X-tol && o.Min.Y >= b.Min.Y-tol &&
		o.Max.X <= b.Max.X+tol && o.Max.Y <= b.Max.Y+tol
}

// boundsOf returns the bounding box of a set of points.
func boundsOf(pts []Point) BBox {
	if len(pts) == 0 {
		return BBox{}
	}
	b := BBox{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
	}
	return b
}
