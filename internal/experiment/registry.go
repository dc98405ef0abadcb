package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/integrators"
	"github.com/san-kum/orbsim/internal/metrics"
	"github.com/san-kum/orbsim/internal/physics"
	"github.com/san-kum/orbsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

// EscapeFactor scales the widest initial orbit into the stability radius.
const EscapeFactor = 10.0

type Registry struct {
	integrators map[string]func() dynamo.SplitIntegrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.SplitIntegrator),
	}

	r.integrators["mikkola"] = func() dynamo.SplitIntegrator { return integrators.NewMikkola() }
	r.integrators["leapfrog"] = func() dynamo.SplitIntegrator { return integrators.NewLeapfrog() }

	return r
}

func (r *Registry) Register(name string, fn func() dynamo.SplitIntegrator) {
	r.integrators[name] = fn
}

func (r *Registry) GetIntegrator(name string) (dynamo.SplitIntegrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSimulator wires the named integrator to direct-sum gravity.
func (r *Registry) NewSimulator(integrator string) (*sim.Simulator, error) {
	integ, err := r.GetIntegrator(integrator)
	if err != nil {
		return nil, err
	}
	return sim.New(integ, physics.NewGravity()), nil
}

func (r *Registry) DefaultMetrics(s *dynamo.Simulation) []dynamo.Metric {
	widest := 0.0
	for _, b := range s.Bodies[1:] {
		widest = math.Max(widest, r3.Norm(r3.Sub(b.Pos, s.Bodies[0].Pos)))
	}
	if widest == 0 {
		widest = 1
	}

	return []dynamo.Metric{
		metrics.NewEnergyDrift(),
		metrics.NewAngularMomentumDrift(),
		metrics.NewStability(EscapeFactor * widest),
	}
}
