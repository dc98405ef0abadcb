package jacobi

import (
	"fmt"

	"github.com/san-kum/orbsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Frame holds the cumulative mass table for one body configuration.
// Transforms read masses from the frame, never from the slices they
// convert, so shadow displacements go through the same linear map as
// the bodies they belong to.
type Frame struct {
	mass []float64
	eta  []float64
}

func NewFrame(bodies []dynamo.Body) *Frame {
	f := &Frame{}
	f.Reset(bodies)
	return f
}

// Reset rebuilds the eta table from the given bodies.
func (f *Frame) Reset(bodies []dynamo.Body) {
	n := len(bodies)
	if cap(f.mass) < n {
		f.mass = make([]float64, n)
		f.eta = make([]float64, n)
	}
	f.mass = f.mass[:n]
	f.eta = f.eta[:n]

	sum := 0.0
	for i, b := range bodies {
		sum += b.Mass
		f.mass[i] = b.Mass
		f.eta[i] = sum
	}
}

// Matches reports whether the frame was built for the same count and
// masses as bodies.
func (f *Frame) Matches(bodies []dynamo.Body) bool {
	if len(bodies) != len(f.mass) {
		return false
	}
	for i, b := range bodies {
		if b.Mass != f.mass[i] {
			return false
		}
	}
	return true
}

func (f *Frame) Len() int { return len(f.eta) }

// Eta returns the total mass of bodies 0..i.
func (f *Frame) Eta(i int) float64 { return f.eta[i] }

func (f *Frame) check(a, b []dynamo.Body) error {
	n := len(f.eta)
	if n == 0 {
		return dynamo.ErrNoBodies
	}
	if len(a) != n || len(b) != n {
		return fmt.Errorf("%w: frame %d, got %d and %d", dynamo.ErrFrameSize, n, len(a), len(b))
	}
	return nil
}

// ToJacobiPosVel writes Jacobi positions and velocities of helio into jac.
// jac[0] receives the centre of mass.
func (f *Frame) ToJacobiPosVel(jac, helio []dynamo.Body) error {
	if err := f.check(jac, helio); err != nil {
		return err
	}
	n := len(f.eta)

	s := r3.Scale(f.mass[0], helio[0].Pos)
	sv := r3.Scale(f.mass[0], helio[0].Vel)
	for i := 1; i < n; i++ {
		inv := 1 / f.eta[i-1]
		jac[i].Pos = r3.Sub(helio[i].Pos, r3.Scale(inv, s))
		jac[i].Vel = r3.Sub(helio[i].Vel, r3.Scale(inv, sv))
		s = r3.Add(s, r3.Scale(f.mass[i], helio[i].Pos))
		sv = r3.Add(sv, r3.Scale(f.mass[i], helio[i].Vel))
	}

	inv := 1 / f.eta[n-1]
	jac[0].Pos = r3.Scale(inv, s)
	jac[0].Vel = r3.Scale(inv, sv)
	return nil
}

// ToJacobiAcc converts accelerations only.
func (f *Frame) ToJacobiAcc(jac, helio []dynamo.Body) error {
	if err := f.check(jac, helio); err != nil {
		return err
	}
	n := len(f.eta)

	s := r3.Scale(f.mass[0], helio[0].Acc)
	for i := 1; i < n; i++ {
		jac[i].Acc = r3.Sub(helio[i].Acc, r3.Scale(1/f.eta[i-1], s))
		s = r3.Add(s, r3.Scale(f.mass[i], helio[i].Acc))
	}
	jac[0].Acc = r3.Scale(1/f.eta[n-1], s)
	return nil
}

// ToHeliocentricPosVel inverts ToJacobiPosVel.
func (f *Frame) ToHeliocentricPosVel(helio, jac []dynamo.Body) error {
	if err := f.check(helio, jac); err != nil {
		return err
	}
	n := len(f.eta)

	var s, sv r3.Vec
	for i := n - 1; i > 0; i-- {
		ratio := f.eta[i-1] / f.eta[i]
		helio[i].Pos = r3.Sub(r3.Add(jac[0].Pos, r3.Scale(ratio, jac[i].Pos)), s)
		helio[i].Vel = r3.Sub(r3.Add(jac[0].Vel, r3.Scale(ratio, jac[i].Vel)), sv)
		w := f.mass[i] / f.eta[i]
		s = r3.Add(s, r3.Scale(w, jac[i].Pos))
		sv = r3.Add(sv, r3.Scale(w, jac[i].Vel))
	}
	helio[0].Pos = r3.Sub(jac[0].Pos, s)
	helio[0].Vel = r3.Sub(jac[0].Vel, sv)
	return nil
}

// ToHeliocentricPos inverts positions only, for velocity-independent forces.
func (f *Frame) ToHeliocentricPos(helio, jac []dynamo.Body) error {
	if err := f.check(helio, jac); err != nil {
		return err
	}
	n := len(f.eta)

	var s r3.Vec
	for i := n - 1; i > 0; i-- {
		ratio := f.eta[i-1] / f.eta[i]
		helio[i].Pos = r3.Sub(r3.Add(jac[0].Pos, r3.Scale(ratio, jac[i].Pos)), s)
		s = r3.Add(s, r3.Scale(f.mass[i]/f.eta[i], jac[i].Pos))
	}
	helio[0].Pos = r3.Sub(jac[0].Pos, s)
	return nil
}
