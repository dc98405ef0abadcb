// Package dynamo provides the core primitives shared by the orbital
// integrators and the driver.
//
// The package defines:
//
//   - [Body]: a point mass, or a variational displacement when used as a shadow
//   - [Simulation]: bodies, shadows and the scalar state (t, dt, G, softening)
//   - [SplitIntegrator]: two-call step with the force evaluation in between
//   - [ForceEvaluator]: fills heliocentric accelerations
//   - [Metric] and [Observer]: per-step hooks used by the driver
//
// # Ownership
//
// A Simulation is owned by the driver and borrowed by the integrators for
// the duration of a call. Nothing in this module keeps process-wide state.
//
// # Thread Safety
//
// Simulation values are NOT thread-safe. [ParallelFor] is only used for
// loops whose iterations write disjoint memory.
package dynamo
