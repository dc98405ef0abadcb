package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/orbsim/internal/analysis"
	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
)

func TestRegistryIntegrators(t *testing.T) {
	r := NewRegistry()
	names := r.ListIntegrators()
	if len(names) != 2 || names[0] != "leapfrog" || names[1] != "mikkola" {
		t.Errorf("unexpected integrators: %v", names)
	}

	for _, name := range names {
		integ, err := r.GetIntegrator(name)
		if err != nil {
			t.Fatal(err)
		}
		if integ.Name() != name {
			t.Errorf("expected %s, got %s", name, integ.Name())
		}
	}

	if _, err := r.GetIntegrator("rk4"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestExperimentRun(t *testing.T) {
	cfg := config.GetPreset("two_body")
	cfg.Duration = 10

	exp := New("two_body", cfg, NewRegistry())
	if _, err := exp.Run(context.Background()); err == nil {
		t.Error("expected error before setup")
	}
	if err := exp.Setup(); err != nil {
		t.Fatal(err)
	}

	first, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if first.Final.Bodies[1].Pos != second.Final.Bodies[1].Pos {
		t.Error("repeated runs should start from the same initial state")
	}
	for _, name := range []string{"energy_drift", "angular_momentum_drift", "stability"} {
		if _, ok := first.Metrics[name]; !ok {
			t.Errorf("metric %s missing", name)
		}
	}
	if first.Metrics["stability"] != 1 {
		t.Errorf("expected a bound orbit, got stability %v", first.Metrics["stability"])
	}
}

func TestChaoticPairPreset(t *testing.T) {
	cfg := config.GetPreset("chaotic_pair")
	cfg.Duration = 1000

	exp := New("chaotic_pair", cfg, NewRegistry())
	if err := exp.Setup(); err != nil {
		t.Fatal(err)
	}
	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if regime := analysis.Classify(result.Megno); regime != analysis.Chaotic {
		t.Errorf("expected a chaotic pair, got MEGNO %v (%v)", result.Megno, regime)
	}
}

func TestExperimentSetupFailure(t *testing.T) {
	cfg := config.GetPreset("two_body")
	cfg.Integrator = "euler"
	if err := New("bad", cfg, NewRegistry()).Setup(); err == nil {
		t.Error("expected unknown integrator error")
	}
}

func TestScan(t *testing.T) {
	cfg := config.GetPreset("sun_jupiter_saturn")
	cfg.Duration = 200

	values := Linspace(8, 10, 3)
	points, err := NewRegistry().Scan(context.Background(), cfg, 2, values, 2)
	if err != nil {
		t.Fatal(err)
	}

	if len(points) != len(values) {
		t.Fatalf("expected %d points, got %d", len(values), len(points))
	}
	for i, p := range points {
		if p.A != values[i] {
			t.Errorf("point %d: expected a=%v, got %v", i, values[i], p.A)
		}
		if math.IsNaN(p.Megno) || math.IsInf(p.Megno, 0) {
			t.Errorf("point %d: expected finite MEGNO, got %v", i, p.Megno)
		}
	}
	if cfg.Bodies[2].Elements.A != 9.537 {
		t.Error("scan modified the caller's config")
	}
}

func TestScanRejectsBadBody(t *testing.T) {
	cfg := config.GetPreset("two_body")
	r := NewRegistry()

	for _, body := range []int{0, 5} {
		if _, err := r.Scan(context.Background(), cfg, body, []float64{1}, 1); !errors.Is(err, dynamo.ErrParameterBounds) {
			t.Errorf("body %d: expected ErrParameterBounds, got %v", body, err)
		}
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(1, 2, 5)
	want := []float64{1, 1.25, 1.5, 1.75, 2}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-15 {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if Linspace(0, 1, 0) != nil || len(Linspace(3, 4, 1)) != 1 {
		t.Error("unexpected degenerate spacing")
	}
}
