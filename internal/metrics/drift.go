package metrics

import (
	"math"

	"github.com/san-kum/swaysim/internal/sim"
)

// DefaultDriftThreshold is the roof drift ratio treated as overstress.
const DefaultDriftThreshold = 0.05

// DriftRatio is |displacement| / height, or 0 for a non-positive height.
func DriftRatio(displacement, height float64) float64 {
	if height <= 0 {
		return 0
	}
	return math.Abs(displacement) / height
}

// Overstressed reports whether the drift ratio exceeds threshold.
func Overstressed(displacement, height, threshold float64) bool {
	return DriftRatio(displacement, height) > threshold
}

// OverstressFraction is the share of observed ticks in which the building
// with the live damper exceeded the drift threshold.
type OverstressFraction struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewOverstressFraction(threshold float64) *OverstressFraction {
	if threshold <= 0 {
		threshold = DefaultDriftThreshold
	}
	return &OverstressFraction{
		name:      "overstress_fraction",
		threshold: threshold,
	}
}

func (o *OverstressFraction) Name() string { return o.name }

func (o *OverstressFraction) Observe(f sim.Frame) {
	o.samples++
	if Overstressed(f.Displacement, f.Height, o.threshold) {
		o.violations++
	}
}

func (o *OverstressFraction) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return float64(o.violations) / float64(o.samples)
}

func (o *OverstressFraction) Reset() {
	o.violations = 0
	o.samples = 0
}
