package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/megno"
	"github.com/san-kum/orbsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

type Simulator struct {
	integrator dynamo.SplitIntegrator
	forces     dynamo.ForceEvaluator
	tracker    *megno.Tracker
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(integrator dynamo.SplitIntegrator, forces dynamo.ForceEvaluator) *Simulator {
	return &Simulator{
		integrator: integrator,
		forces:     forces,
		tracker:    megno.NewTracker(),
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Integrator() dynamo.SplitIntegrator { return s.integrator }
func (s *Simulator) Tracker() *megno.Tracker            { return s.tracker }

// Step advances sim by one full step. Shadow accelerations and the
// MEGNO rate are taken at the synchronized mid-step state.
func (s *Simulator) Step(sim *dynamo.Simulation) error {
	if err := s.integrator.StepFirstHalf(sim); err != nil {
		return err
	}

	s.forces.Accelerations(sim)
	if sim.NMegno() > 0 {
		if err := megno.Accelerations(sim); err != nil {
			return err
		}
		s.tracker.Update(sim.T, sim.Dt, megno.DeltadDelta2(sim.Shadows))
	}

	return s.integrator.StepSecondHalf(sim)
}

// Prepare validates the inputs and seeds the shadows when MEGNO is on.
func (s *Simulator) Prepare(sim *dynamo.Simulation, cfg Config) error {
	if err := s.validateConfig(sim, cfg); err != nil {
		return err
	}
	if cfg.Megno {
		return s.tracker.Init(sim, cfg.MegnoDelta, megno.NewSource(cfg.Seed))
	}
	s.tracker.Reset()
	return nil
}

func (s *Simulator) Run(ctx context.Context, sim *dynamo.Simulation, cfg Config) (*Result, error) {
	if err := s.Prepare(sim, cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / sim.Dt))
	every := cfg.RecordEvery
	if every <= 0 {
		every = 1
	}

	result := &Result{
		Integrator: s.integrator.Name(),
		Samples:    make([]Sample, 0, steps/every+1),
		Metrics:    make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	initialEnergy := physics.Energy(sim)
	result.Samples = append(result.Samples, s.sample(sim, initialEnergy))

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}
		if runErr != nil {
			break
		}

		if err := s.Step(sim); err != nil {
			runErr = &dynamo.SimulationError{Step: i, Time: sim.T, Wrapped: err}
			break
		}

		if cfg.ValidateState && !sim.PhaseState().IsValid() {
			runErr = &dynamo.SimulationError{Step: i, Time: sim.T, Wrapped: dynamo.ErrInvalidState}
			break
		}

		for _, m := range s.metrics {
			m.Observe(sim)
		}
		for _, obs := range s.observers {
			obs.OnStep(sim)
		}

		result.StepsTaken++
		if result.StepsTaken%every == 0 {
			result.Samples = append(result.Samples, s.sample(sim, initialEnergy))
		}
	}

	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(physics.Energy(sim)-initialEnergy) / math.Abs(initialEnergy)
	}
	result.Megno = s.tracker.Megno(sim.T)
	result.Lyapunov = s.tracker.Lyapunov()
	result.Final = sim.Clone()

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, runErr
}

// RunWithCallback steps until the duration is reached or callback
// returns false. Used by the live view.
func (s *Simulator) RunWithCallback(ctx context.Context, sim *dynamo.Simulation, cfg Config, callback func(*dynamo.Simulation) bool) error {
	if err := s.Prepare(sim, cfg); err != nil {
		return err
	}

	steps := int(math.Round(cfg.Duration / sim.Dt))
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		if !callback(sim) {
			return nil
		}

		if err := s.Step(sim); err != nil {
			return &dynamo.SimulationError{Step: i, Time: sim.T, Wrapped: err}
		}
		if cfg.ValidateState && !sim.PhaseState().IsValid() {
			return &dynamo.SimulationError{Step: i, Time: sim.T, Wrapped: dynamo.ErrInvalidState}
		}
	}

	return nil
}

func (s *Simulator) sample(sim *dynamo.Simulation, e0 float64) Sample {
	smp := Sample{
		Time:     sim.T,
		Megno:    s.tracker.Megno(sim.T),
		Lyapunov: s.tracker.Lyapunov(),
	}
	if e0 != 0 {
		smp.EnergyError = math.Abs((physics.Energy(sim) - e0) / e0)
	}
	smp.SemiMajor = SemiMajorAxes(sim)
	return smp
}

// SemiMajorAxes returns the two-body semi-major axis of every body
// around body 0.
func SemiMajorAxes(sim *dynamo.Simulation) []float64 {
	if sim.N() < 2 {
		return nil
	}
	c := sim.Bodies[0]
	out := make([]float64, sim.N()-1)
	for i, b := range sim.Bodies[1:] {
		M := sim.G * (c.Mass + b.Mass)
		out[i] = physics.SemiMajorAxis(M, r3.Sub(b.Pos, c.Pos), r3.Sub(b.Vel, c.Vel))
	}
	return out
}

func (s *Simulator) validateConfig(sim *dynamo.Simulation, cfg Config) error {
	if err := sim.Validate(); err != nil {
		return err
	}
	if sim.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrParameterBounds, sim.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrParameterBounds, cfg.Duration)
	}
	if cfg.Megno && cfg.MegnoDelta <= 0 {
		return fmt.Errorf("%w: megno delta must be positive, got %g", dynamo.ErrParameterBounds, cfg.MegnoDelta)
	}
	return nil
}
