// Package physics provides the structural sway model.
//
// A single-degree-of-freedom building carries a pendulum tuned mass damper
// and is driven by harmonic wind forcing. The steady-state amplitude comes
// from the closed-form two-degree-of-freedom damped absorber:
//
//   - [Evaluate]: response of the building with the live damper
//   - [EvaluateReference]: same forcing, fixed minimal damper
//   - [SwayModel]: clock plus both evaluations, one [Sample] per tick
//
// All constants that are calibration rather than physics live in
// [Calibration].
//
// # Resonance Tuning
//
//	l, _ := model.ResonantLength(in.Height)
//	in.DamperLength = l // wd == wn
package physics
