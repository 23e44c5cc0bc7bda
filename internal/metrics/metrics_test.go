package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/swaysim/internal/sim"
)

func frame(x, xMin, height float64) sim.Frame {
	return sim.Frame{Outputs: sim.Outputs{Displacement: x, ReferenceDisplacement: xMin, Height: height}}
}

func TestOverstressed(t *testing.T) {
	tests := []struct {
		name   string
		disp   float64
		height float64
		want   bool
	}{
		{"calm", 1, 50, false},
		{"at threshold", 2.5, 50, false},
		{"over", 2.6, 50, true},
		{"negative side", -3, 50, true},
		{"no height", 10, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overstressed(tt.disp, tt.height, DefaultDriftThreshold); got != tt.want {
				t.Errorf("Overstressed(%g, %g) = %v, want %v", tt.disp, tt.height, got, tt.want)
			}
		})
	}
}

func TestOverstressFraction(t *testing.T) {
	m := NewOverstressFraction(0)
	m.Observe(frame(1, 0, 50))
	m.Observe(frame(3, 0, 50))
	m.Observe(frame(-4, 0, 50))
	m.Observe(frame(0, 0, 50))

	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestPeakAndRMS(t *testing.T) {
	peak := NewPeak(sim.Reference)
	rms := NewRMS(sim.Reference)
	for _, x := range []float64{3, -4, 0, 4} {
		f := frame(0, x, 50)
		peak.Observe(f)
		rms.Observe(f)
	}

	if peak.Name() != "peak_reference" {
		t.Errorf("unexpected name %q", peak.Name())
	}
	if peak.Value() != 4 {
		t.Errorf("expected peak 4, got %f", peak.Value())
	}
	want := math.Sqrt((9 + 16 + 0 + 16) / 4.0)
	if math.Abs(rms.Value()-want) > 1e-12 {
		t.Errorf("expected rms %f, got %f", want, rms.Value())
	}
}

func TestReduction(t *testing.T) {
	if got := Reduction([]float64{1, -1}, []float64{4, -2}); math.Abs(got-75) > 1e-12 {
		t.Errorf("expected 75%%, got %f", got)
	}
	if got := Reduction([]float64{1}, []float64{0, 0}); got != 0 {
		t.Errorf("expected 0 for still reference, got %f", got)
	}
	if got := Reduction([]float64{5}, []float64{2}); got >= 0 {
		t.Errorf("expected negative reduction when the damper amplifies, got %f", got)
	}
}

func TestDefaultMetricsOnSimulation(t *testing.T) {
	s := sim.New()
	for _, m := range Default(DefaultDriftThreshold) {
		s.AddMetric(m)
	}
	if err := s.Configure(sim.DefaultParams()); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 60; i++ {
		if _, err := s.Tick(1.0 / 60); err != nil {
			t.Fatal(err)
		}
	}

	values := s.Metrics()
	for _, name := range []string{"peak_primary", "peak_reference", "rms_primary", "rms_reference", "max_damper_angle", "overstress_fraction"} {
		if _, ok := values[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if values["rms_primary"] > values["peak_primary"] {
		t.Error("rms must not exceed peak")
	}
}
