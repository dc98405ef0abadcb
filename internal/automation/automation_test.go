package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/experiment"
)

const scenarioYAML = `name: smoke
description: two short runs
steps:
  - name: mikkola
    preset: two_body
    duration: 5
  - preset: two_body
    integrator: leapfrog
    duration: 5
    megno: true
    seed: 9
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "smoke" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}
	if sc.Steps[1].Megno == nil || !*sc.Steps[1].Megno {
		t.Error("expected megno override on step 2")
	}

	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); err == nil {
		t.Error("expected error for a scenario without steps")
	}
}

func TestResolve(t *testing.T) {
	on := true
	cfg, err := ScenarioStep{Preset: "two_body", Dt: 0.01, Integrator: "leapfrog", Megno: &on, Seed: 3}.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dt != 0.01 || cfg.Integrator != "leapfrog" || !cfg.Megno.Enabled || cfg.Seed != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if config.Presets["two_body"].Dt == 0.01 {
		t.Error("resolve modified the shared preset")
	}

	if _, err := (ScenarioStep{Name: "none"}).Resolve(); err == nil {
		t.Error("expected error without preset or config")
	}
	if _, err := (ScenarioStep{Preset: "missing"}).Resolve(); err == nil {
		t.Error("expected error for an unknown preset")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "mikkola" || results[1].Name != "step2" {
		t.Errorf("unexpected names %q, %q", results[0].Name, results[1].Name)
	}
	if results[1].Result.Integrator != "leapfrog" {
		t.Errorf("expected leapfrog, got %s", results[1].Result.Integrator)
	}
	if results[1].Result.Megno == 0 {
		t.Error("expected MEGNO on the second step")
	}
}

func TestRunScenarioStopsOnFailure(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{
		{Preset: "two_body", Duration: 1},
		{Preset: "two_body", Integrator: "euler", Duration: 1},
	}}
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry())
	if err == nil {
		t.Fatal("expected error for an unknown integrator")
	}
	if len(results) != 1 {
		t.Errorf("expected the first step to complete, got %d results", len(results))
	}
}

func TestRunMonteCarlo(t *testing.T) {
	base := config.GetPreset("two_body")
	base.Duration = 20
	mc := &MonteCarloConfig{Base: base, NumTrials: 4, Perturbation: 0.01, Seed: 5, Workers: 2}

	first, err := RunMonteCarlo(context.Background(), mc, experiment.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	second, err := RunMonteCarlo(context.Background(), mc, experiment.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != 4 {
		t.Fatalf("expected 4 trials, got %d", len(first))
	}
	for i := range first {
		if first[i].TrialID != i {
			t.Errorf("trial %d out of order", i)
		}
		if first[i].Megno != second[i].Megno {
			t.Errorf("trial %d not reproducible: %v vs %v", i, first[i].Megno, second[i].Megno)
		}
	}
	if first[0].Config.Bodies[1].Elements.A == first[1].Config.Bodies[1].Elements.A {
		t.Error("trials should be perturbed differently")
	}

	regular, chaotic, unsettled := MonteCarloStats(first)
	if regular+chaotic+unsettled != 4 {
		t.Errorf("stats do not add up: %d %d %d", regular, chaotic, unsettled)
	}
}

func TestRunMonteCarloRejectsZeroTrials(t *testing.T) {
	mc := &MonteCarloConfig{Base: config.GetPreset("two_body")}
	if _, err := RunMonteCarlo(context.Background(), mc, experiment.NewRegistry()); err == nil {
		t.Error("expected error for zero trials")
	}
}
