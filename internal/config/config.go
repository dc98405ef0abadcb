package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/physics"
	"github.com/san-kum/orbsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultIntegrator = "mikkola"
	DefaultDt         = 0.01
	DefaultDuration   = 100.0
	DefaultG          = 1.0
	DefaultDelta      = 1e-6
	DefaultRecord     = 10
)

type Config struct {
	Integrator        string       `yaml:"integrator"`
	Dt                float64      `yaml:"dt"`
	Duration          float64      `yaml:"duration"`
	G                 float64      `yaml:"g"`
	Softening         float64      `yaml:"softening"`
	VelocityDependent bool         `yaml:"velocity_dependent"`
	CenterOfMass      bool         `yaml:"center_of_mass"`
	Seed              uint64       `yaml:"seed"`
	RecordEvery       int          `yaml:"record_every"`
	Megno             MegnoConfig  `yaml:"megno"`
	Bodies            []BodyConfig `yaml:"bodies"`
}

type MegnoConfig struct {
	Enabled bool    `yaml:"enabled"`
	Delta   float64 `yaml:"delta"`
}

// BodyConfig places a body either by explicit pos/vel or by orbital
// elements relative to the first body.
type BodyConfig struct {
	Name     string          `yaml:"name,omitempty"`
	Mass     float64         `yaml:"mass"`
	Pos      []float64       `yaml:"pos,omitempty"`
	Vel      []float64       `yaml:"vel,omitempty"`
	Elements *ElementsConfig `yaml:"elements,omitempty"`
}

// ElementsConfig angles are in radians.
type ElementsConfig struct {
	A    float64 `yaml:"a"`
	E    float64 `yaml:"e"`
	Inc  float64 `yaml:"inc"`
	Node float64 `yaml:"node"`
	Peri float64 `yaml:"peri"`
	F    float64 `yaml:"f"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator:   DefaultIntegrator,
		Dt:           DefaultDt,
		Duration:     DefaultDuration,
		G:            DefaultG,
		CenterOfMass: true,
		RecordEvery:  DefaultRecord,
		Megno:        MegnoConfig{Delta: DefaultDelta},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so presets can be edited safely.
func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = make([]BodyConfig, len(c.Bodies))
	for i, b := range c.Bodies {
		b.Pos = append([]float64(nil), b.Pos...)
		b.Vel = append([]float64(nil), b.Vel...)
		if b.Elements != nil {
			el := *b.Elements
			b.Elements = &el
		}
		out.Bodies[i] = b
	}
	return &out
}

func (c *Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", dynamo.ErrParameterBounds, fmt.Sprintf(format, args...))
	}

	switch {
	case c.Integrator == "":
		return bad("integrator must be set")
	case c.Dt <= 0 || math.IsNaN(c.Dt) || math.IsInf(c.Dt, 0):
		return bad("dt must be positive, got %g", c.Dt)
	case c.Duration <= 0:
		return bad("duration must be positive, got %g", c.Duration)
	case c.G <= 0:
		return bad("g must be positive, got %g", c.G)
	case c.Softening < 0:
		return bad("softening must be non-negative, got %g", c.Softening)
	case c.RecordEvery < 0:
		return bad("record_every must be non-negative, got %d", c.RecordEvery)
	case c.Megno.Enabled && c.Megno.Delta <= 0:
		return bad("megno delta must be positive, got %g", c.Megno.Delta)
	case len(c.Bodies) == 0:
		return dynamo.ErrNoBodies
	case c.Bodies[0].Mass <= 0:
		return bad("central mass must be positive, got %g", c.Bodies[0].Mass)
	case c.Bodies[0].Elements != nil:
		return bad("the central body cannot be placed by elements")
	}

	for i, b := range c.Bodies {
		if b.Mass < 0 {
			return bad("body %d: negative mass %g", i, b.Mass)
		}
		if len(b.Pos) != 0 && len(b.Pos) != 3 {
			return bad("body %d: pos needs 3 components, got %d", i, len(b.Pos))
		}
		if len(b.Vel) != 0 && len(b.Vel) != 3 {
			return bad("body %d: vel needs 3 components, got %d", i, len(b.Vel))
		}
		if b.Elements != nil && (len(b.Pos) != 0 || len(b.Vel) != 0) {
			return bad("body %d: give either elements or pos/vel", i)
		}
	}
	return nil
}

// Build validates the config and returns the initial simulation.
func (c *Config) Build() (*dynamo.Simulation, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s := &dynamo.Simulation{
		Bodies:            make([]dynamo.Body, len(c.Bodies)),
		Dt:                c.Dt,
		G:                 c.G,
		Softening:         c.Softening,
		VelocityDependent: c.VelocityDependent,
	}

	central := c.Bodies[0]
	s.Bodies[0] = dynamo.Body{Mass: central.Mass, Pos: vec(central.Pos), Vel: vec(central.Vel)}

	for i := 1; i < len(c.Bodies); i++ {
		b := c.Bodies[i]
		body := dynamo.Body{Mass: b.Mass, Pos: vec(b.Pos), Vel: vec(b.Vel)}

		if b.Elements != nil {
			el := physics.Elements(*b.Elements)
			pos, vel, err := physics.FromElements(c.G*(central.Mass+b.Mass), el)
			if err != nil {
				return nil, fmt.Errorf("body %d: %w", i, err)
			}
			body.Pos = r3.Add(s.Bodies[0].Pos, pos)
			body.Vel = r3.Add(s.Bodies[0].Vel, vel)
		}
		s.Bodies[i] = body
	}

	if c.CenterOfMass {
		physics.MoveToCenterOfMass(s.Bodies)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// RunConfig returns the driver settings of this config.
func (c *Config) RunConfig() sim.Config {
	return sim.Config{
		Duration:      c.Duration,
		RecordEvery:   c.RecordEvery,
		ValidateState: true,
		Megno:         c.Megno.Enabled,
		MegnoDelta:    c.Megno.Delta,
		Seed:          c.Seed,
	}
}

func vec(v []float64) r3.Vec {
	if len(v) != 3 {
		return r3.Vec{}
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}
