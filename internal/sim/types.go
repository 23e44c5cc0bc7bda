package sim

import (
	"fmt"

	"github.com/san-kum/swaysim/internal/dynamo"
	"github.com/san-kum/swaysim/internal/mesh"
	"github.com/san-kum/swaysim/internal/physics"
)

// Building selects one of the two building instances.
type Building int

const (
	Primary   Building = iota // live damper
	Reference                 // fixed minimal damper
)

func (b Building) String() string {
	switch b {
	case Primary:
		return "primary"
	case Reference:
		return "reference"
	default:
		return fmt.Sprintf("building(%d)", int(b))
	}
}

// ParseBuilding accepts the names returned by String.
func ParseBuilding(s string) (Building, error) {
	switch s {
	case "primary", "tmd", "with_tmd":
		return Primary, nil
	case "reference", "no_tmd":
		return Reference, nil
	}
	return 0, fmt.Errorf("unknown building: %s", s)
}

// Params is everything the host feeds in. Dynamics are physical units;
// Scale converts metres to world units for the mesh.
type Params struct {
	Dynamics    physics.Inputs
	Calibration physics.Calibration

	Segments       int
	Scale          float64
	Cutoff         float64 // world units
	AnchorFraction float64
	FloorHeight    float64
	MetersPerUnit  float64
	TopBlank       float64
	UVMode         mesh.UVMode
}

func DefaultParams() Params {
	return Params{
		Dynamics:       physics.DefaultInputs(),
		Calibration:    physics.DefaultCalibration(),
		Segments:       100,
		Scale:          10,
		Cutoff:         1000,
		AnchorFraction: mesh.DefaultAnchorFraction,
		FloorHeight:    mesh.DefaultFloorHeight,
		MetersPerUnit:  mesh.DefaultMetersPerUnit,
		TopBlank:       mesh.DefaultTopBlank,
		UVMode:         mesh.UVFloors,
	}
}

func (p Params) Validate() error {
	if err := dynamo.RequirePositive("scale", p.Scale); err != nil {
		return err
	}
	if err := dynamo.RequireNonNegative("cutoff", p.Cutoff); err != nil {
		return err
	}
	if p.AnchorFraction < 0 || p.AnchorFraction > 1 {
		return dynamo.NewDomainError("anchor_fraction", p.AnchorFraction, "must be within [0, 1]")
	}
	if err := p.Calibration.Validate(); err != nil {
		return err
	}
	if err := p.Dynamics.Validate(); err != nil {
		return err
	}
	return p.Mesh().Validate()
}

// Mesh returns the rest-shape parameters in world units.
func (p Params) Mesh() mesh.Params {
	return mesh.Params{
		Width:         p.Dynamics.Width / p.Scale,
		Height:        p.Dynamics.Height / p.Scale,
		Segments:      p.Segments,
		FloorHeight:   p.FloorHeight,
		MetersPerUnit: p.MetersPerUnit,
		TopBlank:      p.TopBlank,
		UVMode:        p.UVMode,
	}
}

// Outputs is the wholesale-recomputed result of one tick.
type Outputs struct {
	Time float64

	BuildingMass float64
	NaturalFreq  float64 // wn
	DamperFreq   float64 // wd
	ForcingFreq  float64 // w0

	DampedAmplitude      float64 // |u| with the live damper
	ReferenceAmplitude   float64 // |u| with the minimal damper
	DamperSwingAmplitude float64 // |ud|

	Displacement          float64 // x, metres
	ReferenceDisplacement float64 // xMin, metres
	DamperDisplacement    float64 // xd, metres
	DamperAngle           float64 // degrees

	Height         float64 // metres, for drift ratios
	PendulumLength float64 // world units
	Anchor         dynamo.Vec3
}

// Frame pairs the outputs with both bent meshes.
type Frame struct {
	Outputs
	Primary   *mesh.Bent
	Reference *mesh.Bent
}

// Geometry returns the bent mesh of b.
func (f Frame) Geometry(b Building) *mesh.Bent {
	if b == Reference {
		return f.Reference
	}
	return f.Primary
}

type Observer interface {
	OnTick(f Frame)
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f Frame)

func (fn ObserverFunc) OnTick(f Frame) { fn(f) }
