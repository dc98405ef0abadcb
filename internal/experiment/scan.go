package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/sim"
	"gonum.org/v1/gonum/floats"
)

type ScanPoint struct {
	A        float64
	Megno    float64
	Lyapunov float64
}

// Scan varies the semi-major axis of one element-placed body and runs
// every variant with MEGNO enabled, at most limit at a time.
func (r *Registry) Scan(ctx context.Context, cfg *config.Config, body int, values []float64, limit int) ([]ScanPoint, error) {
	if body <= 0 || body >= len(cfg.Bodies) {
		return nil, fmt.Errorf("%w: scan body %d out of range", dynamo.ErrParameterBounds, body)
	}
	if cfg.Bodies[body].Elements == nil {
		return nil, fmt.Errorf("%w: scan body %d is not placed by elements", dynamo.ErrParameterBounds, body)
	}
	if _, err := r.GetIntegrator(cfg.Integrator); err != nil {
		return nil, err
	}

	base := cfg.Clone()
	base.Megno.Enabled = true
	if base.Megno.Delta <= 0 {
		base.Megno.Delta = config.DefaultDelta
	}

	sims := make([]*dynamo.Simulation, len(values))
	for i, a := range values {
		variant := base.Clone()
		variant.Bodies[body].Elements.A = a
		s, err := variant.Build()
		if err != nil {
			return nil, fmt.Errorf("a=%g: %w", a, err)
		}
		sims[i] = s
	}

	factory := func() *sim.Simulator {
		s, _ := r.NewSimulator(base.Integrator)
		return s
	}
	runCfg := base.RunConfig()
	runCfg.RecordEvery = int(base.Duration/base.Dt) + 1

	results, err := sim.NewEnsemble(factory, limit).Run(ctx, sims, runCfg)
	if err != nil {
		return nil, err
	}

	points := make([]ScanPoint, len(values))
	for i, res := range results {
		points[i] = ScanPoint{A: values[i], Megno: res.Megno, Lyapunov: res.Lyapunov}
	}
	return points, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}
