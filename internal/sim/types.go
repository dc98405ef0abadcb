package sim

import "github.com/san-kum/orbsim/internal/dynamo"

type Config struct {
	Duration float64

	// RecordEvery samples the series every n steps; 0 records every step.
	RecordEvery   int
	ValidateState bool

	Megno      bool
	MegnoDelta float64
	Seed       uint64
}

// Sample is one recorded point of a run. SemiMajor[i] belongs to
// body i+1 relative to body 0.
type Sample struct {
	Time        float64
	Megno       float64
	Lyapunov    float64
	EnergyError float64
	SemiMajor   []float64
}

type Result struct {
	Integrator string
	Samples    []Sample
	Final      *dynamo.Simulation
	Metrics    map[string]float64

	Megno       float64
	Lyapunov    float64
	EnergyDrift float64
	StepsTaken  int
}

// Series extracts one column of the recorded samples.
func (r *Result) Series(pick func(Sample) float64) []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = pick(s)
	}
	return out
}

func (r *Result) Times() []float64 {
	return r.Series(func(s Sample) float64 { return s.Time })
}
