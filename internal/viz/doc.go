// Package viz provides the terminal live view of an orbit integration.
//
// [Model] is a Bubble Tea model that advances a [sim.Simulator] on every
// tick, draws body trails on a braille [Canvas] and plots the MEGNO and
// energy error history with asciigraph.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state
//	T     - Cycle color themes
//	+/-   - Zoom
//	</>   - Halve/double steps per frame
//	?     - Show help overlay
package viz
