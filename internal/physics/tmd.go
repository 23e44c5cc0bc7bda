package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/swaysim/internal/dynamo"
)

// Calibration holds the tunable constants of the sway estimate. None of
// them is physical law; revisions of the model used different values for
// the same quantities and they are kept configurable.
type Calibration struct {
	Density         float64 // effective density/shape factor, mass = a²·h·Density
	PeriodCoeff     float64 // T = PeriodCoeff·h^0.75
	Gravity         float64
	Gust            float64 // F0 = Gust·(v²/2)·Shape·a·h
	Shape           float64
	ReferenceLength float64 // pendulum length of the reference building
	ReferenceMass   float64 // damper mass of the reference building
	DeadZone        float64
}

func DefaultCalibration() Calibration {
	return Calibration{
		Density:         375,
		PeriodCoeff:     0.085,
		Gravity:         9.81,
		Gust:            1.25,
		Shape:           1.3,
		ReferenceLength: 1.0,
		ReferenceMass:   10000,
		DeadZone:        1e-4,
	}
}

// Inputs are the per-tick control values, all in physical units.
type Inputs struct {
	Height         float64 // h, m
	Width          float64 // a, m; frontage and effective depth
	DamperLength   float64 // l, m
	DamperMass     float64 // md, kg
	WindSpeed      float64 // v, m/s
	ResonanceRatio float64 // res, percent of wn
	DampingRatio   float64 // d
}

func DefaultInputs() Inputs {
	return Inputs{
		Height:         50,
		Width:          10,
		DamperLength:   10,
		DamperMass:     50000,
		WindSpeed:      30,
		ResonanceRatio: 100,
		DampingRatio:   0.1,
	}
}

// Response is the steady-state harmonic response of one configuration.
type Response struct {
	BuildingMass     float64 // kg
	NaturalFreq      float64 // wn, rad/s
	DamperFreq       float64 // wd, rad/s
	ForcingFreq      float64 // w0, rad/s
	Stiffness        float64 // k = mass·wn²
	ForcingAmplitude float64 // F0, N
	Amplitude        float64 // u, building amplitude with the damper
	DamperAmplitude  float64 // ud
}

// Validate checks every input the closed form divides by or takes a root of.
func (in Inputs) Validate() error {
	if err := dynamo.RequirePositive("height", in.Height); err != nil {
		return err
	}
	if err := dynamo.RequirePositive("width", in.Width); err != nil {
		return err
	}
	if err := dynamo.RequirePositive("damper_length", in.DamperLength); err != nil {
		return err
	}
	if err := dynamo.RequireNonNegative("damper_mass", in.DamperMass); err != nil {
		return err
	}
	if err := dynamo.RequireNonNegative("wind_speed", in.WindSpeed); err != nil {
		return err
	}
	if err := dynamo.RequireNonNegative("resonance_ratio", in.ResonanceRatio); err != nil {
		return err
	}
	return dynamo.RequireNonNegative("damping_ratio", in.DampingRatio)
}

func (c Calibration) Validate() error {
	if err := dynamo.RequirePositive("density", c.Density); err != nil {
		return err
	}
	if err := dynamo.RequirePositive("period_coeff", c.PeriodCoeff); err != nil {
		return err
	}
	if err := dynamo.RequirePositive("gravity", c.Gravity); err != nil {
		return err
	}
	if err := dynamo.RequirePositive("reference_length", c.ReferenceLength); err != nil {
		return err
	}
	if err := dynamo.RequireNonNegative("reference_mass", c.ReferenceMass); err != nil {
		return err
	}
	return dynamo.RequireNonNegative("dead_zone", c.DeadZone)
}

// BuildingMass is a²·h·Density.
func (c Calibration) BuildingMass(height, width float64) float64 {
	return width * width * height * c.Density
}

// NaturalFrequency is 2π/T with T = PeriodCoeff·h^0.75.
func (c Calibration) NaturalFrequency(height float64) float64 {
	period := c.PeriodCoeff * math.Pow(height, 0.75)
	return 2 * math.Pi / period
}

// DamperFrequency is the pendulum frequency sqrt(g/l).
func (c Calibration) DamperFrequency(length float64) float64 {
	return math.Sqrt(c.Gravity / length)
}

// ResonantLength is the pendulum length whose frequency equals wn.
func (c Calibration) ResonantLength(wn float64) float64 {
	return c.Gravity / (wn * wn)
}

// ForcingAmplitude is the simplified wind load proxy.
func (c Calibration) ForcingAmplitude(windSpeed, width, height float64) float64 {
	return c.Gust * (windSpeed * windSpeed / 2) * c.Shape * width * height
}

// Evaluate computes the harmonic response of the building fitted with a
// pendulum damper of the given length and mass.
func Evaluate(in Inputs, cal Calibration) (Response, error) {
	if err := in.Validate(); err != nil {
		return Response{}, err
	}
	mass := cal.BuildingMass(in.Height, in.Width)
	if err := dynamo.RequirePositive("building_mass", mass); err != nil {
		return Response{}, err
	}

	wn := cal.NaturalFrequency(in.Height)
	w0 := wn * (in.ResonanceRatio / 100)
	p := w0 / wn

	resp, err := respond(p, wn, in.DamperLength, in.DamperMass, in.DampingRatio, mass, cal)
	if err != nil {
		return Response{}, err
	}
	resp.ForcingFreq = w0
	resp.ForcingAmplitude = cal.ForcingAmplitude(in.WindSpeed, in.Width, in.Height)
	resp.Amplitude *= resp.ForcingAmplitude
	resp.DamperAmplitude *= resp.ForcingAmplitude
	if !dynamo.IsFinite(resp.Amplitude) || !dynamo.IsFinite(resp.DamperAmplitude) {
		return Response{}, fmt.Errorf("amplitude at res=%g%%: %w", in.ResonanceRatio, dynamo.ErrInvalidState)
	}
	return resp, nil
}

// EvaluateReference holds the forcing ratio of in but swaps the damper for
// the calibration's fixed minimal one.
func EvaluateReference(in Inputs, cal Calibration) (Response, error) {
	ref := in
	ref.DamperLength = cal.ReferenceLength
	ref.DamperMass = cal.ReferenceMass
	return Evaluate(ref, cal)
}

// respond returns the response per unit force (amplitudes are later scaled by F0).
func respond(p, wn, length, md, d, mass float64, cal Calibration) (Response, error) {
	wd := cal.DamperFrequency(length)
	if !dynamo.IsFinite(wd) {
		return Response{}, dynamo.NewDomainError("damper_length", length, "gives no damper frequency")
	}

	f := wd / wn
	mr := md / mass
	k := mass * wn * wn

	b := 2 * d * p * f
	q := 1 - p*p
	r := 1 + mr
	m := f*f - p*p
	n := mr * p * p * f * f

	cd3 := q*m - n
	s := 1 - p*p*r
	td3 := b * s / cd3
	ta1 := b / m
	// (1+ta1·td3)/sqrt((1+ta1²)(1+td3²)) written as a cosine of the angle
	// difference so m=0 or cd3=0 stays finite.
	cd1 := math.Cos(math.Atan(ta1) - math.Atan(td3))

	den := math.Sqrt(cd3*cd3 + b*b*s*s)
	h1 := math.Sqrt(m*m+b*b) / den
	h3 := p * p / den

	return Response{
		BuildingMass:    mass,
		NaturalFreq:     wn,
		DamperFreq:      wd,
		Stiffness:       k,
		Amplitude:       h1 * cd1 / k,
		DamperAmplitude: h3 * cd3 / k,
	}, nil
}
