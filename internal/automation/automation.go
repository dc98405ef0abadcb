package automation

import (
	"context"
	"fmt"
	"os"

	"github.com/san-kum/orbsim/internal/analysis"
	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/experiment"
	"github.com/san-kum/orbsim/internal/sim"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset or a config file and overrides the
// fields that are set.
type ScenarioStep struct {
	Name       string  `yaml:"name"`
	Preset     string  `yaml:"preset"`
	Config     string  `yaml:"config"`
	Integrator string  `yaml:"integrator"`
	Duration   float64 `yaml:"duration"`
	Dt         float64 `yaml:"dt"`
	Megno      *bool   `yaml:"megno"`
	Seed       uint64  `yaml:"seed"`
}

type StepResult struct {
	Name   string
	Config *config.Config
	Result *sim.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Resolve builds the effective config of a step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	default:
		return nil, fmt.Errorf("step %q needs a preset or a config", s.Name)
	}

	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Megno != nil {
		cfg.Megno.Enabled = *s.Megno
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	return cfg, cfg.Validate()
}

// RunScenario executes the steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(name, cfg, registry)
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Name: name, Config: cfg, Result: result})
	}

	return results, nil
}

// MonteCarloConfig jitters the elements of every element-placed body
// and integrates each trial with MEGNO on.
type MonteCarloConfig struct {
	Base      *config.Config
	NumTrials int
	// Perturbation is the relative jitter on a and the absolute jitter on
	// e and the angles.
	Perturbation float64
	Seed         uint64
	Workers      int
}

type MonteCarloResult struct {
	TrialID  int
	Config   *config.Config
	Megno    float64
	Lyapunov float64
	Regime   analysis.Regime
}

// RunMonteCarlo runs all trials as one ensemble.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("%w: need at least one trial", dynamo.ErrParameterBounds)
	}
	if _, err := registry.GetIntegrator(cfg.Base.Integrator); err != nil {
		return nil, err
	}

	base := cfg.Base.Clone()
	base.Megno.Enabled = true
	if base.Megno.Delta <= 0 {
		base.Megno.Delta = config.DefaultDelta
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	jitter := func() float64 { return (2*rng.Float64() - 1) * cfg.Perturbation }

	trials := make([]*config.Config, cfg.NumTrials)
	sims := make([]*dynamo.Simulation, cfg.NumTrials)
	for i := range trials {
		trial := base.Clone()
		for _, b := range trial.Bodies {
			if b.Elements == nil {
				continue
			}
			b.Elements.A *= 1 + jitter()
			b.Elements.E = max(0, b.Elements.E+jitter())
			b.Elements.Inc += jitter()
			b.Elements.F += jitter()
		}
		s, err := trial.Build()
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", i, err)
		}
		trials[i], sims[i] = trial, s
	}

	factory := func() *sim.Simulator {
		s, _ := registry.NewSimulator(base.Integrator)
		return s
	}
	runCfg := base.RunConfig()
	runCfg.RecordEvery = int(base.Duration/base.Dt) + 1

	runs, err := sim.NewEnsemble(factory, cfg.Workers).Run(ctx, sims, runCfg)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		results[i] = MonteCarloResult{
			TrialID:  i,
			Config:   trials[i],
			Megno:    r.Megno,
			Lyapunov: r.Lyapunov,
			Regime:   analysis.Classify(r.Megno),
		}
	}
	return results, nil
}

// MonteCarloStats counts trials per regime.
func MonteCarloStats(results []MonteCarloResult) (regular, chaotic, unsettled int) {
	for _, r := range results {
		switch r.Regime {
		case analysis.Regular:
			regular++
		case analysis.Chaotic:
			chaotic++
		default:
			unsettled++
		}
	}
	return
}
