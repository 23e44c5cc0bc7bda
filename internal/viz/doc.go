// Package viz is the terminal front end of the sway simulation.
//
// [Model] is a Bubble Tea program that ticks a [sim.Simulation] at 60Hz and
// draws the reference building and the damped building side by side on
// Braille [Canvas]es, the damper pendulum inside the latter, the readouts
// and both displacement histories. A building whose drift ratio exceeds
// the threshold is drawn in the theme's error colour.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	N     - Single step while paused
//	R     - Restore the initial inputs and rewind
//	T     - Tune the damper to the building's natural frequency
//	Tab   - Cycle parameters, Up/Down adjust by 5%
//	C     - Cycle color themes
//	?     - Show help overlay
package viz
