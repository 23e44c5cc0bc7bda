package metrics

import (
	"math"

	"github.com/san-kum/swaysim/internal/sim"
)

// Peak tracks the largest |displacement| of one building.
type Peak struct {
	name     string
	building sim.Building
	peak     float64
}

func NewPeak(b sim.Building) *Peak {
	return &Peak{name: "peak_" + b.String(), building: b}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(f sim.Frame) {
	p.peak = math.Max(p.peak, math.Abs(displacement(f, p.building)))
}

func (p *Peak) Value() float64 { return p.peak }
func (p *Peak) Reset()         { p.peak = 0 }

// RMS is the root mean square displacement of one building.
type RMS struct {
	name     string
	building sim.Building
	sumSq    float64
	samples  int
}

func NewRMS(b sim.Building) *RMS {
	return &RMS{name: "rms_" + b.String(), building: b}
}

func (r *RMS) Name() string { return r.name }

func (r *RMS) Observe(f sim.Frame) {
	x := displacement(f, r.building)
	r.sumSq += x * x
	r.samples++
}

func (r *RMS) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return math.Sqrt(r.sumSq / float64(r.samples))
}

func (r *RMS) Reset() {
	r.sumSq = 0
	r.samples = 0
}

// MaxDamperAngle tracks the largest pendulum swing in degrees.
type MaxDamperAngle struct {
	angle float64
}

func NewMaxDamperAngle() *MaxDamperAngle { return &MaxDamperAngle{} }

func (m *MaxDamperAngle) Name() string { return "max_damper_angle" }
func (m *MaxDamperAngle) Observe(f sim.Frame) {
	m.angle = math.Max(m.angle, math.Abs(f.DamperAngle))
}
func (m *MaxDamperAngle) Value() float64 { return m.angle }
func (m *MaxDamperAngle) Reset()         { m.angle = 0 }

// Reduction is the percentage by which the peak of withTMD undercuts the
// peak of noTMD. It is 0 when noTMD never moves.
func Reduction(withTMD, noTMD []float64) float64 {
	ref := peakOf(noTMD)
	if ref == 0 {
		return 0
	}
	return (1 - peakOf(withTMD)/ref) * 100
}

// Default returns the metric set used by headless runs.
func Default(threshold float64) []sim.Metric {
	return []sim.Metric{
		NewPeak(sim.Primary),
		NewPeak(sim.Reference),
		NewRMS(sim.Primary),
		NewRMS(sim.Reference),
		NewMaxDamperAngle(),
		NewOverstressFraction(threshold),
	}
}

func displacement(f sim.Frame, b sim.Building) float64 {
	if b == sim.Reference {
		return f.ReferenceDisplacement
	}
	return f.Displacement
}

func peakOf(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		m = math.Max(m, math.Abs(x))
	}
	return m
}
