package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/jacobi"
	"github.com/san-kum/orbsim/internal/kepler"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mikkola is a Wisdom-Holman map in Jacobi coordinates. Each Jacobi
// body drifts on its exact Kepler orbit around the interior mass, and
// the interaction kick only carries the perturbation on top of it.
type Mikkola struct {
	frame     *jacobi.Frame
	jac       []dynamo.Body
	jacShadow []dynamo.Body

	// primed is set between a successful first half and the matching
	// second half, while jac still holds the drifted Jacobi state.
	primed bool
}

func NewMikkola() *Mikkola {
	return &Mikkola{frame: jacobi.NewFrame(nil)}
}

func (m *Mikkola) Name() string { return "mikkola" }

// Resize rebuilds the frame and the Jacobi buffers for the current
// bodies and shadows.
func (m *Mikkola) Resize(s *dynamo.Simulation) {
	m.frame.Reset(s.Bodies)
	m.jac = resizeBodies(m.jac, s.N())
	m.jacShadow = resizeBodies(m.jacShadow, s.NMegno())
	m.primed = false
}

func resizeBodies(buf []dynamo.Body, n int) []dynamo.Body {
	if cap(buf) < n {
		return make([]dynamo.Body, n)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = dynamo.Body{}
	}
	return buf
}

func (m *Mikkola) stale(s *dynamo.Simulation) bool {
	return !m.frame.Matches(s.Bodies) || len(m.jacShadow) != s.NMegno()
}

func (m *Mikkola) StepFirstHalf(s *dynamo.Simulation) error {
	if s.N() == 0 {
		return dynamo.ErrNoBodies
	}
	if m.stale(s) {
		m.Resize(s)
	}
	m.primed = false

	if err := m.toJacobi(s); err != nil {
		return err
	}

	half := s.Dt / 2
	if err := m.drift(s, half); err != nil {
		return err
	}

	if s.VelocityDependent || s.NMegno() > 0 {
		if err := m.frame.ToHeliocentricPosVel(s.Bodies, m.jac); err != nil {
			return err
		}
	} else if err := m.frame.ToHeliocentricPos(s.Bodies, m.jac); err != nil {
		return err
	}
	if s.NMegno() > 0 {
		if err := m.frame.ToHeliocentricPosVel(s.Shadows, m.jacShadow); err != nil {
			return err
		}
	}

	s.T += half
	m.primed = true
	return nil
}

func (m *Mikkola) StepSecondHalf(s *dynamo.Simulation) error {
	if s.N() == 0 {
		return dynamo.ErrNoBodies
	}
	if !m.primed || m.stale(s) {
		if m.stale(s) {
			m.Resize(s)
		}
		if err := m.toJacobi(s); err != nil {
			return err
		}
	}
	m.primed = false

	if err := m.frame.ToJacobiAcc(m.jac, s.Bodies); err != nil {
		return err
	}
	if s.NMegno() > 0 {
		if err := m.frame.ToJacobiAcc(m.jacShadow, s.Shadows); err != nil {
			return err
		}
	}

	m.kick(s, s.Dt)

	half := s.Dt / 2
	if err := m.drift(s, half); err != nil {
		return err
	}
	s.T += half

	if err := m.frame.ToHeliocentricPosVel(s.Bodies, m.jac); err != nil {
		return err
	}
	if s.NMegno() > 0 {
		return m.frame.ToHeliocentricPosVel(s.Shadows, m.jacShadow)
	}
	return nil
}

func (m *Mikkola) toJacobi(s *dynamo.Simulation) error {
	if err := m.frame.ToJacobiPosVel(m.jac, s.Bodies); err != nil {
		return err
	}
	if s.NMegno() > 0 {
		return m.frame.ToJacobiPosVel(m.jacShadow, s.Shadows)
	}
	return nil
}

// drift moves every Jacobi body along its Kepler orbit and the centroid
// in a straight line. Failures leave the heliocentric state untouched.
func (m *Mikkola) drift(s *dynamo.Simulation, dt float64) error {
	shadows := s.NMegno() > 0

	for i := 1; i < len(m.jac); i++ {
		var dp *dynamo.Body
		if shadows {
			dp = &m.jacShadow[i]
		}
		if err := kepler.Drift(&m.jac[i], dp, s.G*m.frame.Eta(i), dt); err != nil {
			return fmt.Errorf("mikkola: drift of body %d: %w", i, err)
		}
	}

	m.jac[0].Pos = r3.Add(m.jac[0].Pos, r3.Scale(dt, m.jac[0].Vel))
	if shadows {
		m.jacShadow[0].Pos = r3.Add(m.jacShadow[0].Pos, r3.Scale(dt, m.jacShadow[0].Vel))
	}
	return nil
}

// kick applies the interaction Hamiltonian: the full Jacobi acceleration
// with the Kepler term of the drift added back.
func (m *Mikkola) kick(s *dynamo.Simulation, dt float64) {
	shadows := s.NMegno() > 0

	for i := 1; i < len(m.jac); i++ {
		M := s.G * m.frame.Eta(i)
		r := m.jac[i].Pos
		r2 := r3.Dot(r, r)
		rr := math.Sqrt(r2)
		prefac := M / (r2 * rr)

		if shadows {
			d := &m.jacShadow[i]
			rdr := r3.Dot(r, d.Pos)
			prefac2 := -3 * M * rdr / (r2 * r2 * rr)
			da := r3.Add(d.Acc, r3.Add(r3.Scale(prefac, d.Pos), r3.Scale(prefac2, r)))
			d.Vel = r3.Add(d.Vel, r3.Scale(dt, da))
		}

		a := r3.Add(m.jac[i].Acc, r3.Scale(prefac, r))
		m.jac[i].Vel = r3.Add(m.jac[i].Vel, r3.Scale(dt, a))
	}
}
