package physics

import (
	"math"

	"github.com/san-kum/swaysim/internal/dynamo"
)

// Sample is one tick of the sway model for both building configurations.
type Sample struct {
	Time      float64
	Primary   Response
	Reference Response

	Displacement          float64 // x, building with the live damper
	ReferenceDisplacement float64 // xMin, building with the minimal damper
	DamperDisplacement    float64 // xd
	DamperAngle           float64 // degrees
}

// SwayModel turns slider inputs into a displacement time series. The only
// state it carries is the simulation clock.
type SwayModel struct {
	Calibration Calibration
	t           float64
}

func NewSwayModel(cal Calibration) *SwayModel {
	return &SwayModel{Calibration: cal}
}

func (m *SwayModel) Time() float64 { return m.t }
func (m *SwayModel) Reset()        { m.t = 0 }

// Step advances the clock by dt and evaluates both configurations. The
// clock advances even when the inputs are rejected.
func (m *SwayModel) Step(in Inputs, dt float64) (Sample, error) {
	if err := dynamo.RequireNonNegative("dt", dt); err != nil {
		return Sample{}, err
	}
	m.t += dt
	return m.Sample(in)
}

// Sample evaluates both configurations at the current time.
func (m *SwayModel) Sample(in Inputs) (Sample, error) {
	if err := m.Calibration.Validate(); err != nil {
		return Sample{}, err
	}
	primary, err := Evaluate(in, m.Calibration)
	if err != nil {
		return Sample{}, err
	}
	reference, err := EvaluateReference(in, m.Calibration)
	if err != nil {
		return Sample{}, err
	}

	phase := math.Sin(primary.NaturalFreq * m.t)
	s := Sample{
		Time:                  m.t,
		Primary:               primary,
		Reference:             reference,
		Displacement:          math.Abs(primary.Amplitude) * phase,
		ReferenceDisplacement: math.Abs(reference.Amplitude) * phase,
		// Same phase as the building; the transfer function implies a lag
		// that the display model does not apply.
		DamperDisplacement: math.Abs(primary.DamperAmplitude) * phase,
	}
	s.DamperAngle = PendulumAngle(s.DamperDisplacement, in.DamperLength)
	return s, nil
}

// ResonantLength returns the damper length that makes wd equal wn for the
// given building height.
func (m *SwayModel) ResonantLength(height float64) (float64, error) {
	if err := dynamo.RequirePositive("height", height); err != nil {
		return 0, err
	}
	return m.Calibration.ResonantLength(m.Calibration.NaturalFrequency(height)), nil
}

// PendulumAngle is asin(xd/l) in degrees with the ratio clamped to [-1, 1].
func PendulumAngle(xd, length float64) float64 {
	if length <= 0 {
		return 0
	}
	return math.Asin(dynamo.Clamp(xd/length, -1, 1)) * 180 / math.Pi
}

// ApplyDeadZone pushes values inside (-eps, eps), other than zero, out to ±eps
// so the mesh does not jitter around a near-zero bend.
func ApplyDeadZone(x, eps float64) float64 {
	if x > 0 && x < eps {
		return eps
	}
	if x < 0 && x > -eps {
		return -eps
	}
	return x
}
