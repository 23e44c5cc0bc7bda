package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/swaysim/internal/dynamo"
)

func TestBuildingMass(t *testing.T) {
	cal := DefaultCalibration()
	got := cal.BuildingMass(50, 10)
	if math.Abs(got-1.875e6) > 1e-6 {
		t.Errorf("expected mass 1.875e6, got %f", got)
	}
}

func TestNaturalFrequency(t *testing.T) {
	cal := DefaultCalibration()
	wn := cal.NaturalFrequency(50)
	period := 0.085 * math.Pow(50, 0.75)
	if math.Abs(wn-2*math.Pi/period) > 1e-12 {
		t.Errorf("expected wn %f, got %f", 2*math.Pi/period, wn)
	}
}

func TestEvaluateWithoutDamperMatchesSDOF(t *testing.T) {
	cal := DefaultCalibration()
	in := DefaultInputs()
	in.DamperMass = 0
	in.ResonanceRatio = 50

	resp, err := Evaluate(in, cal)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	p := 0.5
	expected := resp.ForcingAmplitude / resp.Stiffness / (1 - p*p)
	if math.Abs(math.Abs(resp.Amplitude)-expected) > 1e-9*expected {
		t.Errorf("expected |u|=%g, got %g", expected, resp.Amplitude)
	}
}

func TestDamperNegligibleAwayFromResonance(t *testing.T) {
	cal := DefaultCalibration()
	in := DefaultInputs()
	in.DamperMass = 0
	in.ResonanceRatio = 10

	with, err := Evaluate(in, cal)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	ref, err := EvaluateReference(in, cal)
	if err != nil {
		t.Fatalf("reference failed: %v", err)
	}

	a, b := math.Abs(with.Amplitude), math.Abs(ref.Amplitude)
	if math.Abs(a-b)/b > 0.01 {
		t.Errorf("amplitudes should converge: with=%g without=%g", a, b)
	}
}

func TestTunedDamperReducesResonantSway(t *testing.T) {
	cal := DefaultCalibration()
	in := DefaultInputs()
	in.DamperLength = cal.ResonantLength(cal.NaturalFrequency(in.Height))
	in.DamperMass = 100000
	in.ResonanceRatio = 95

	with, err := Evaluate(in, cal)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	bare := in
	bare.DamperMass = 0
	without, err := Evaluate(bare, cal)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	if math.Abs(with.Amplitude) >= math.Abs(without.Amplitude) {
		t.Errorf("tuned damper should reduce sway: with=%g without=%g", with.Amplitude, without.Amplitude)
	}
}

func TestEvaluateDomainErrors(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Inputs)
		param string
	}{
		{"zero length", func(in *Inputs) { in.DamperLength = 0 }, "damper_length"},
		{"negative length", func(in *Inputs) { in.DamperLength = -1 }, "damper_length"},
		{"zero height", func(in *Inputs) { in.Height = 0 }, "height"},
		{"zero width", func(in *Inputs) { in.Width = 0 }, "width"},
		{"negative mass", func(in *Inputs) { in.DamperMass = -5 }, "damper_mass"},
		{"nan wind", func(in *Inputs) { in.WindSpeed = math.NaN() }, "wind_speed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := DefaultInputs()
			tt.mod(&in)
			_, err := Evaluate(in, DefaultCalibration())
			if !errors.Is(err, dynamo.ErrDomain) {
				t.Fatalf("expected domain error, got %v", err)
			}
			var de *dynamo.DomainError
			if !errors.As(err, &de) || de.Param != tt.param {
				t.Errorf("expected param %s, got %v", tt.param, err)
			}
		})
	}
}

func TestEvaluateUndampedResonanceIsInvalid(t *testing.T) {
	cal := DefaultCalibration()
	in := DefaultInputs()
	in.DamperMass = 0
	in.DamperLength = cal.ResonantLength(cal.NaturalFrequency(in.Height))

	_, err := Evaluate(in, cal)
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected invalid state at undamped resonance, got %v", err)
	}
}

func TestEvaluateOffTunedResonanceIsFinite(t *testing.T) {
	in := DefaultInputs()
	in.DamperMass = 0
	in.ResonanceRatio = 120

	resp, err := Evaluate(in, DefaultCalibration())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !dynamo.IsFinite(resp.Amplitude) || resp.Amplitude == 0 {
		t.Errorf("expected finite non-zero amplitude, got %g", resp.Amplitude)
	}
}
