package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// State is a flattened phase-space vector, six entries per body.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Body is a point mass. Shadow bodies reuse the layout to hold an
// infinitesimal displacement instead of a physical state.
type Body struct {
	Pos  r3.Vec
	Vel  r3.Vec
	Acc  r3.Vec
	Mass float64
}

// Simulation is the state shared between the driver and the integrators.
// Shadows[k] is the variational displacement attached to Bodies[k].
type Simulation struct {
	Bodies  []Body
	Shadows []Body

	T         float64
	Dt        float64
	G         float64
	Softening float64

	// VelocityDependent selects the position+velocity heliocentric
	// reconstruction after the first half step.
	VelocityDependent bool
}

func (s *Simulation) N() int      { return len(s.Bodies) }
func (s *Simulation) NMegno() int { return len(s.Shadows) }

func (s *Simulation) Clone() *Simulation {
	c := *s
	c.Bodies = append([]Body(nil), s.Bodies...)
	if s.Shadows != nil {
		c.Shadows = append([]Body(nil), s.Shadows...)
	}
	return &c
}

// PhaseState flattens body positions and velocities.
func (s *Simulation) PhaseState() State {
	x := make(State, 0, 6*len(s.Bodies))
	for _, b := range s.Bodies {
		x = append(x, b.Pos.X, b.Pos.Y, b.Pos.Z, b.Vel.X, b.Vel.Y, b.Vel.Z)
	}
	return x
}

func (s *Simulation) Validate() error {
	if len(s.Bodies) == 0 {
		return ErrNoBodies
	}
	if s.Dt == 0 || math.IsNaN(s.Dt) || math.IsInf(s.Dt, 0) {
		return fmt.Errorf("%w: dt=%g", ErrParameterBounds, s.Dt)
	}
	if s.G <= 0 {
		return fmt.Errorf("%w: G=%g", ErrParameterBounds, s.G)
	}
	if s.Softening < 0 {
		return fmt.Errorf("%w: softening=%g", ErrParameterBounds, s.Softening)
	}
	for i, b := range s.Bodies {
		if b.Mass < 0 {
			return fmt.Errorf("%w: body %d has mass %g", ErrParameterBounds, i, b.Mass)
		}
	}
	if s.Bodies[0].Mass <= 0 {
		return fmt.Errorf("%w: central mass must be positive", ErrParameterBounds)
	}
	if n := len(s.Shadows); n != 0 && n != len(s.Bodies) {
		return fmt.Errorf("%w: %d shadows for %d bodies", ErrDimensionMismatch, n, len(s.Bodies))
	}
	return nil
}

// ForceEvaluator fills the heliocentric accelerations of the real bodies.
type ForceEvaluator interface {
	Accelerations(s *Simulation)
}

// SplitIntegrator advances a simulation in two halves. The force
// evaluator runs exactly once between the two calls.
type SplitIntegrator interface {
	Name() string
	StepFirstHalf(s *Simulation) error
	StepSecondHalf(s *Simulation) error
}

type Metric interface {
	Name() string
	Observe(s *Simulation)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s *Simulation)
}
