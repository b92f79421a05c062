package geometry

import "math"

// affine holds the coefficients of
//
//	| a c e |
//	| b d f |
//	| 0 0 1 |
type affine struct {
	a, b, c, d, e, f float64
}

var identity = affine{1, 0, 0, 1, 0, 0}

func translation(dx, dy float64) affine {
	return affine{1, 0, 0, 1, dx, dy}
}

func rotation(deg float64) affine {
	sin, cos := sincosDeg(deg)
	return affine{cos, sin, -sin, cos, 0, 0}
}

// then returns the transform that applies t first and u second.
func (t affine) then(u affine) affine {
	return affine{
		a: u.a*t.a + u.c*t.b,
		b: u.b*t.a + u.d*t.b,
		c: u.a*t.c + u.c*t.d,
		d: u.b*t.c + u.d*t.d,
		e: u.a*t.e + u.c*t.f + u.e,
		f: u.b*t.e + u.d*t.f + u.f,
	}
}

func (t affine) apply(p Point) Point {
	return Point{
		X: t.a*p.X + t.c*p.Y + t.e,
		Y: t.b*p.X + t.d*p.Y + t.f,
	}
}

// rotateAbout rotates by deg degrees around center.
func rotateAbout(deg float64, center Point) affine {
	return translation(-center.X, -center.Y).
		then(rotation(deg)).
		then(translation(center.X, center.Y))
}

// sincosDeg is math.Sincos for degrees, exact for quarter turns so that
// rotated rectangles keep axis-aligned edges.
func sincosDeg(deg float64) (sin, cos float64) {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	switch d {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(d * math.Pi / 180)
}
