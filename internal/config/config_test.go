package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Integrator != "mikkola" {
		t.Errorf("expected integrator mikkola, got %s", cfg.Integrator)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if !errors.Is(cfg.Validate(), dynamo.ErrNoBodies) {
		t.Error("default config without bodies should not validate")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("sun_jupiter_saturn")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if len(cfg.Bodies) != 3 {
		t.Errorf("expected 3 bodies, got %d", len(cfg.Bodies))
	}

	cfg.Bodies[1].Elements.A = 99
	if Presets["sun_jupiter_saturn"].Bodies[1].Elements.A == 99 {
		t.Error("GetPreset should return an independent copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}
}

func TestPresetsBuild(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			s, err := GetPreset(name).Build()
			if err != nil {
				t.Fatalf("build failed: %v", err)
			}
			pos, vel := physics.CenterOfMass(s.Bodies)
			if r3.Norm(pos) > 1e-12 || r3.Norm(vel) > 1e-12 {
				t.Errorf("expected barycentric frame, got %v %v", pos, vel)
			}
		})
	}
}

func TestBuildElementsRelativeToCentralBody(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CenterOfMass = false
	cfg.Bodies = []BodyConfig{
		{Mass: 1, Pos: []float64{10, 0, 0}, Vel: []float64{0, 1, 0}},
		{Mass: 1e-3, Elements: &ElementsConfig{A: 2, E: 0.3}},
	}

	s, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}

	rel := r3.Sub(s.Bodies[1].Pos, s.Bodies[0].Pos)
	relVel := r3.Sub(s.Bodies[1].Vel, s.Bodies[0].Vel)
	if a := physics.SemiMajorAxis(1+1e-3, rel, relVel); math.Abs(a-2) > 1e-12 {
		t.Errorf("expected a=2, got %v", a)
	}
	if want := (r3.Vec{X: 10 + 2*0.7}); r3.Norm(r3.Sub(s.Bodies[1].Pos, want)) > 1e-12 {
		t.Errorf("expected pericentre at %v, got %v", want, s.Bodies[1].Pos)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.Bodies = []BodyConfig{{Mass: 1}, {Mass: 1e-3, Pos: []float64{1, 0, 0}, Vel: []float64{0, 1, 0}}}
		return cfg
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no integrator", func(c *Config) { c.Integrator = "" }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"zero duration", func(c *Config) { c.Duration = 0 }},
		{"zero G", func(c *Config) { c.G = 0 }},
		{"negative softening", func(c *Config) { c.Softening = -1 }},
		{"negative record", func(c *Config) { c.RecordEvery = -1 }},
		{"megno delta", func(c *Config) { c.Megno = MegnoConfig{Enabled: true} }},
		{"massless centre", func(c *Config) { c.Bodies[0].Mass = 0 }},
		{"central elements", func(c *Config) { c.Bodies[0].Elements = &ElementsConfig{A: 1} }},
		{"short pos", func(c *Config) { c.Bodies[1].Pos = []float64{1, 0} }},
		{"both placements", func(c *Config) { c.Bodies[1].Elements = &ElementsConfig{A: 1} }},
		{"negative mass", func(c *Config) { c.Bodies[1].Mass = -1 }},
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestBuildRejectsBadElements(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bodies = []BodyConfig{{Mass: 1}, {Mass: 1e-3, Elements: &ElementsConfig{A: -1, E: 0.5}}}
	if _, err := cfg.Build(); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("chaotic_pair")
	cfg.Seed = 42
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Seed != 42 || len(loaded.Bodies) != 3 || loaded.Bodies[2].Elements.A != 1.15 {
		t.Errorf("round trip lost data: %+v", loaded)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("dt: 0.2\nbodies:\n  - mass: 1\n  - mass: 0.001\n    elements: {a: 1.5, e: 0.1}\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dt != 0.2 || cfg.Integrator != DefaultIntegrator || cfg.G != DefaultG {
		t.Errorf("expected defaults merged with file, got %+v", cfg)
	}
	if _, err := cfg.Build(); err != nil {
		t.Errorf("build failed: %v", err)
	}
}
