package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Elements are osculating Keplerian elements. Angles are in radians;
// Node is the longitude of the ascending node, Peri the argument of
// pericentre and F the true anomaly.
type Elements struct {
	A    float64
	E    float64
	Inc  float64
	Node float64
	Peri float64
	F    float64
}

// FromElements returns the position and velocity relative to the
// primary for gravitational parameter M.
func FromElements(M float64, el Elements) (pos, vel r3.Vec, err error) {
	switch {
	case M <= 0:
		return pos, vel, fmt.Errorf("%w: gravitational parameter %g", dynamo.ErrParameterBounds, M)
	case el.E < 0 || el.E == 1:
		return pos, vel, fmt.Errorf("%w: eccentricity %g", dynamo.ErrParameterBounds, el.E)
	case el.E < 1 && el.A <= 0:
		return pos, vel, fmt.Errorf("%w: bound orbit needs a > 0, got %g", dynamo.ErrParameterBounds, el.A)
	case el.E > 1 && el.A >= 0:
		return pos, vel, fmt.Errorf("%w: hyperbolic orbit needs a < 0, got %g", dynamo.ErrParameterBounds, el.A)
	}

	p := el.A * (1 - el.E*el.E)
	denom := 1 + el.E*math.Cos(el.F)
	if denom <= 0 {
		return pos, vel, fmt.Errorf("%w: true anomaly %g beyond the asymptote", dynamo.ErrParameterBounds, el.F)
	}
	r := p / denom

	cO, sO := math.Cos(el.Node), math.Sin(el.Node)
	cw, sw := math.Cos(el.Peri), math.Sin(el.Peri)
	ci, si := math.Cos(el.Inc), math.Sin(el.Inc)

	P := r3.Vec{X: cO*cw - sO*sw*ci, Y: sO*cw + cO*sw*ci, Z: sw * si}
	Q := r3.Vec{X: -cO*sw - sO*cw*ci, Y: -sO*sw + cO*cw*ci, Z: cw * si}

	cf, sf := math.Cos(el.F), math.Sin(el.F)
	pos = r3.Add(r3.Scale(r*cf, P), r3.Scale(r*sf, Q))

	h := math.Sqrt(M / p)
	vel = r3.Add(r3.Scale(-h*sf, P), r3.Scale(h*(el.E+cf), Q))
	return pos, vel, nil
}

// SemiMajorAxis of a relative orbit. Unbound orbits give a negative value.
func SemiMajorAxis(M float64, pos, vel r3.Vec) float64 {
	r := r3.Norm(pos)
	return 1 / (2/r - r3.Dot(vel, vel)/M)
}

func Eccentricity(M float64, pos, vel r3.Vec) float64 {
	r := r3.Norm(pos)
	v2 := r3.Dot(vel, vel)
	e := r3.Sub(r3.Scale(v2-M/r, pos), r3.Scale(r3.Dot(pos, vel), vel))
	return r3.Norm(e) / M
}
