package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/sim"
)

type Experiment struct {
	name      string
	cfg       *config.Config
	registry  *Registry
	simulator *sim.Simulator
	initial   *dynamo.Simulation
}

func New(name string, cfg *config.Config, registry *Registry) *Experiment {
	return &Experiment{
		name:     name,
		cfg:      cfg,
		registry: registry,
	}
}

// Setup builds the initial state and a simulator with the default metrics.
func (e *Experiment) Setup() error {
	initial, err := e.cfg.Build()
	if err != nil {
		return fmt.Errorf("experiment %s: %w", e.name, err)
	}

	simulator, err := e.registry.NewSimulator(e.cfg.Integrator)
	if err != nil {
		return fmt.Errorf("experiment %s: %w", e.name, err)
	}
	for _, m := range e.registry.DefaultMetrics(initial) {
		simulator.AddMetric(m)
	}

	e.initial = initial
	e.simulator = simulator
	return nil
}

// Run integrates a copy of the initial state, so an experiment can be
// run more than once.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.initial.Clone(), e.cfg.RunConfig())
}

func (e *Experiment) Name() string                { return e.name }
func (e *Experiment) Config() *config.Config      { return e.cfg }
func (e *Experiment) Initial() *dynamo.Simulation { return e.initial }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
