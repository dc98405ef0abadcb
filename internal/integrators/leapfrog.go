package integrators

import (
	"github.com/san-kum/orbsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Leapfrog is drift-kick-drift in the inertial frame. Shadows follow
// the same map with their variational accelerations.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Name() string { return "leapfrog" }

func (l *Leapfrog) StepFirstHalf(s *dynamo.Simulation) error {
	if s.N() == 0 {
		return dynamo.ErrNoBodies
	}
	halfDt := 0.5 * s.Dt
	driftAll(s.Bodies, halfDt)
	driftAll(s.Shadows, halfDt)
	s.T += halfDt
	return nil
}

func (l *Leapfrog) StepSecondHalf(s *dynamo.Simulation) error {
	if s.N() == 0 {
		return dynamo.ErrNoBodies
	}
	halfDt := 0.5 * s.Dt
	kickAll(s.Bodies, s.Dt)
	kickAll(s.Shadows, s.Dt)
	driftAll(s.Bodies, halfDt)
	driftAll(s.Shadows, halfDt)
	s.T += halfDt
	return nil
}

func driftAll(bodies []dynamo.Body, dt float64) {
	for i := range bodies {
		bodies[i].Pos = r3.Add(bodies[i].Pos, r3.Scale(dt, bodies[i].Vel))
	}
}

func kickAll(bodies []dynamo.Body, dt float64) {
	for i := range bodies {
		bodies[i].Vel = r3.Add(bodies[i].Vel, r3.Scale(dt, bodies[i].Acc))
	}
}
