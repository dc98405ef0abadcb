// Package physics provides the Newtonian pieces around the integrators.
//
//   - [Gravity]: direct-summation force evaluator, parallel for large N
//   - [Energy], [Momentum], [AngularMomentum]: conserved quantities
//   - [FromElements], [SemiMajorAxis], [Eccentricity]: orbital elements
//
// # Energy Conservation
//
// Track the relative energy error of a run against its initial value:
//
//	e0 := physics.Energy(sim)
//	// ... step ...
//	drift := math.Abs((physics.Energy(sim) - e0) / e0)
package physics
