package megno

import (
	"fmt"
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
	"golang.org/x/exp/rand"
)

// NormalSource supplies standard normal variates for shadow seeding.
type NormalSource interface {
	NormFloat64() float64
}

func NewSource(seed uint64) NormalSource {
	return rand.New(rand.NewSource(seed))
}

// Tracker accumulates the MEGNO integrals and a streaming linear fit of
// <Y> against t, whose slope estimates the maximal Lyapunov exponent.
type Tracker struct {
	Ys  float64
	Yss float64

	meanT    float64
	meanY    float64
	coMoment float64
	m2       float64
	n        int64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Init resets the accumulators and attaches one shadow per body, each
// with a random displacement of scale delta.
func (tr *Tracker) Init(s *dynamo.Simulation, delta float64, src NormalSource) error {
	if delta < 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return fmt.Errorf("%w: megno delta=%g", dynamo.ErrParameterBounds, delta)
	}
	if src == nil {
		src = NewSource(1)
	}
	tr.Reset()

	s.Shadows = make([]dynamo.Body, s.N())
	for i := range s.Shadows {
		d := &s.Shadows[i]
		d.Mass = s.Bodies[i].Mass
		d.Pos.X = delta * src.NormFloat64()
		d.Pos.Y = delta * src.NormFloat64()
		d.Pos.Z = delta * src.NormFloat64()
		d.Vel.X = delta * src.NormFloat64()
		d.Vel.Y = delta * src.NormFloat64()
		d.Vel.Z = delta * src.NormFloat64()
	}
	return nil
}

// Update folds one step into the integrals. t is the time at which rate
// was sampled and dt the step length.
func (tr *Tracker) Update(t, dt, rate float64) {
	tr.Ys += 2 * dt * t * rate
	if t == 0 {
		return
	}
	tr.Yss += tr.Ys / t * dt

	y := tr.Yss / t
	tr.n++
	dT := t - tr.meanT
	tr.meanT += dT / float64(tr.n)
	tr.meanY += (y - tr.meanY) / float64(tr.n)
	tr.coMoment += dT * (y - tr.meanY)
	tr.m2 += dT * (t - tr.meanT)
}

// Megno returns the mean exponential growth factor <Y> at time t.
func (tr *Tracker) Megno(t float64) float64 {
	if t == 0 {
		return 0
	}
	return tr.Yss / t
}

// Lyapunov returns cov(<Y>, t) / var(t), or 0 before t has spread.
func (tr *Tracker) Lyapunov() float64 {
	v := tr.Variance()
	if v == 0 {
		return 0
	}
	return tr.Covariance() / v
}

func (tr *Tracker) Covariance() float64 {
	if tr.n == 0 {
		return 0
	}
	return tr.coMoment / float64(tr.n)
}

func (tr *Tracker) Variance() float64 {
	if tr.n == 0 {
		return 0
	}
	return tr.m2 / float64(tr.n)
}

// Samples is the number of covariance updates so far.
func (tr *Tracker) Samples() int64 { return tr.n }

func (tr *Tracker) Reset() {
	*tr = Tracker{}
}
