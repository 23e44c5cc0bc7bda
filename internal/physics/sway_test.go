package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/swaysim/internal/dynamo"
)

func TestSwayModelAccumulatesTime(t *testing.T) {
	m := NewSwayModel(DefaultCalibration())
	in := DefaultInputs()

	for i := 0; i < 60; i++ {
		if _, err := m.Step(in, 1.0/60); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}
	if math.Abs(m.Time()-1.0) > 1e-9 {
		t.Errorf("expected t=1, got %f", m.Time())
	}

	m.Reset()
	if m.Time() != 0 {
		t.Errorf("expected t=0 after reset, got %f", m.Time())
	}
}

func TestSwayModelDisplacementBounded(t *testing.T) {
	m := NewSwayModel(DefaultCalibration())
	in := DefaultInputs()

	for i := 0; i < 120; i++ {
		s, err := m.Step(in, 1.0/60)
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if math.Abs(s.Displacement) > math.Abs(s.Primary.Amplitude)+1e-12 {
			t.Fatalf("displacement %g exceeds amplitude %g", s.Displacement, s.Primary.Amplitude)
		}
		if math.Abs(s.ReferenceDisplacement) > math.Abs(s.Reference.Amplitude)+1e-12 {
			t.Fatalf("reference displacement %g exceeds amplitude %g", s.ReferenceDisplacement, s.Reference.Amplitude)
		}
		if s.DamperAngle < -90 || s.DamperAngle > 90 {
			t.Fatalf("damper angle %f out of range", s.DamperAngle)
		}
	}
}

func TestSwayModelResonantLength(t *testing.T) {
	m := NewSwayModel(DefaultCalibration())
	in := DefaultInputs()

	l, err := m.ResonantLength(in.Height)
	if err != nil {
		t.Fatalf("resonant length failed: %v", err)
	}
	in.DamperLength = l

	s, err := m.Sample(in)
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	if math.Abs(s.Primary.DamperFreq-s.Primary.NaturalFreq) > 1e-9 {
		t.Errorf("expected wd == wn, got wd=%f wn=%f", s.Primary.DamperFreq, s.Primary.NaturalFreq)
	}

	again, _ := m.ResonantLength(in.Height)
	if again != l {
		t.Errorf("tuning should be idempotent: %f vs %f", l, again)
	}
}

func TestSwayModelRejectsNegativeDt(t *testing.T) {
	m := NewSwayModel(DefaultCalibration())
	_, err := m.Step(DefaultInputs(), -0.1)
	if !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("expected domain error, got %v", err)
	}
}

func TestApplyDeadZone(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{5e-5, 1e-4},
		{-5e-5, -1e-4},
		{2e-4, 2e-4},
		{-3, -3},
	}
	for _, tt := range tests {
		if got := ApplyDeadZone(tt.in, 1e-4); got != tt.want {
			t.Errorf("ApplyDeadZone(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestPendulumAngleClamps(t *testing.T) {
	if got := PendulumAngle(50, 10); math.Abs(got-90) > 1e-9 {
		t.Errorf("expected 90, got %f", got)
	}
	if got := PendulumAngle(-50, 10); math.Abs(got+90) > 1e-9 {
		t.Errorf("expected -90, got %f", got)
	}
	if got := PendulumAngle(5, 10); math.Abs(got-30) > 1e-9 {
		t.Errorf("expected 30, got %f", got)
	}
}
