package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrNoConvergence indicates the Kepler root finder ran out of iterations.
	ErrNoConvergence = errors.New("dynamo: kepler solver did not converge")

	// ErrFrameSize indicates Jacobi buffers sized for a different body count.
	ErrFrameSize = errors.New("dynamo: jacobi frame does not match body count")

	// ErrNoBodies indicates an empty simulation.
	ErrNoBodies = errors.New("dynamo: simulation has no bodies")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrDimensionMismatch indicates shadow and body counts disagree.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between bodies and shadows")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
