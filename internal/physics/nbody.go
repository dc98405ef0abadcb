package physics

import (
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultParallelThreshold is the body count from which the pair sum
// is split across workers.
const DefaultParallelThreshold = 64

// Gravity is a direct-summation Newtonian force evaluator. G and the
// softening length are read from the simulation.
type Gravity struct {
	ParallelThreshold int
}

func NewGravity() *Gravity {
	return &Gravity{ParallelThreshold: DefaultParallelThreshold}
}

// Accelerations overwrites Acc of every body. Each body sums its own
// row, so chunks never write to the same index.
func (g *Gravity) Accelerations(s *dynamo.Simulation) {
	bodies := s.Bodies
	n := len(bodies)
	eps2 := s.Softening * s.Softening

	row := func(start, end int) {
		for i := start; i < end; i++ {
			var a r3.Vec
			pi := bodies[i].Pos
			for j := 0; j < n; j++ {
				if j == i || bodies[j].Mass == 0 {
					continue
				}
				d := r3.Sub(bodies[j].Pos, pi)
				r2 := r3.Dot(d, d) + eps2
				rInv := 1.0 / math.Sqrt(r2)
				f := s.G * bodies[j].Mass * rInv * rInv * rInv
				a = r3.Add(a, r3.Scale(f, d))
			}
			bodies[i].Acc = a
		}
	}

	if g.ParallelThreshold > 0 && n >= g.ParallelThreshold {
		dynamo.ParallelFor(n, g.ParallelThreshold/4, row)
		return
	}
	row(0, n)
}

// Energy returns the total kinetic plus softened potential energy.
func Energy(s *dynamo.Simulation) float64 {
	eps2 := s.Softening * s.Softening
	ke, pe := 0.0, 0.0

	for i, bi := range s.Bodies {
		ke += 0.5 * bi.Mass * r3.Dot(bi.Vel, bi.Vel)
		for j := i + 1; j < len(s.Bodies); j++ {
			bj := s.Bodies[j]
			d := r3.Sub(bj.Pos, bi.Pos)
			r := math.Sqrt(r3.Dot(d, d) + eps2)
			pe -= s.G * bi.Mass * bj.Mass / r
		}
	}

	return ke + pe
}

func Momentum(s *dynamo.Simulation) r3.Vec {
	var p r3.Vec
	for _, b := range s.Bodies {
		p = r3.Add(p, r3.Scale(b.Mass, b.Vel))
	}
	return p
}

func AngularMomentum(s *dynamo.Simulation) r3.Vec {
	var L r3.Vec
	for _, b := range s.Bodies {
		L = r3.Add(L, r3.Scale(b.Mass, r3.Cross(b.Pos, b.Vel)))
	}
	return L
}

// CenterOfMass returns the mass-weighted position and velocity.
func CenterOfMass(bodies []dynamo.Body) (pos, vel r3.Vec) {
	total := 0.0
	for _, b := range bodies {
		pos = r3.Add(pos, r3.Scale(b.Mass, b.Pos))
		vel = r3.Add(vel, r3.Scale(b.Mass, b.Vel))
		total += b.Mass
	}
	if total == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	return r3.Scale(1/total, pos), r3.Scale(1/total, vel)
}

// MoveToCenterOfMass shifts the bodies so the barycentre sits at rest
// at the origin.
func MoveToCenterOfMass(bodies []dynamo.Body) {
	pos, vel := CenterOfMass(bodies)
	for i := range bodies {
		bodies[i].Pos = r3.Sub(bodies[i].Pos, pos)
		bodies[i].Vel = r3.Sub(bodies[i].Vel, vel)
	}
}
