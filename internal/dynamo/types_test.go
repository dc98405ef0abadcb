package dynamo

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{1, 0}, 1.0},
		{State{0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_SubAndClone(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	diff := b.Sub(a)
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}

	c := a.Clone()
	c[0] = 99
	if a[0] == 99 {
		t.Error("Clone did not create independent copy")
	}
}

func pair() *Simulation {
	return &Simulation{
		G:  1,
		Dt: 0.1,
		Bodies: []Body{
			{Mass: 1},
			{Mass: 1e-3, Pos: r3.Vec{X: 1}, Vel: r3.Vec{Y: 1}},
		},
	}
}

func TestSimulation_PhaseState(t *testing.T) {
	x := pair().PhaseState()
	want := State{0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 1, 0}
	if len(x) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(x))
	}
	for i := range want {
		if x[i] != want[i] {
			t.Errorf("entry %d: expected %v, got %v", i, want[i], x[i])
		}
	}
}

func TestSimulation_Clone(t *testing.T) {
	s := pair()
	s.Shadows = make([]Body, 2)
	c := s.Clone()
	c.Bodies[1].Pos.X = 7
	c.Shadows[0].Pos.X = 7

	if s.Bodies[1].Pos.X != 1 || s.Shadows[0].Pos.X != 0 {
		t.Error("Clone shares body storage with the original")
	}
}

func TestSimulation_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Simulation)
		want   error
	}{
		{"valid", func(*Simulation) {}, nil},
		{"no bodies", func(s *Simulation) { s.Bodies = nil }, ErrNoBodies},
		{"zero dt", func(s *Simulation) { s.Dt = 0 }, ErrParameterBounds},
		{"nan dt", func(s *Simulation) { s.Dt = math.NaN() }, ErrParameterBounds},
		{"zero G", func(s *Simulation) { s.G = 0 }, ErrParameterBounds},
		{"negative softening", func(s *Simulation) { s.Softening = -1 }, ErrParameterBounds},
		{"negative mass", func(s *Simulation) { s.Bodies[1].Mass = -1 }, ErrParameterBounds},
		{"massless centre", func(s *Simulation) { s.Bodies[0].Mass = 0 }, ErrParameterBounds},
		{"shadow mismatch", func(s *Simulation) { s.Shadows = make([]Body, 1) }, ErrDimensionMismatch},
		{"backwards dt", func(s *Simulation) { s.Dt = -0.1 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := pair()
			tt.modify(s)
			err := s.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Time: 1.5, Step: 150, Wrapped: ErrInvalidState}
	expected := "step 150 (t=1.5000): dynamo: invalid state (NaN or Inf detected)"
	if err.Error() != expected {
		t.Errorf("SimulationError.Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("SimulationError should unwrap to its cause")
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000} {
		hits := make([]int, n)
		ParallelFor(n, 4, func(start, end int) {
			for i := start; i < end; i++ {
				hits[i]++
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}
