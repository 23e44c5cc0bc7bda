package server

import (
	"github.com/san-kum/swaysim/internal/mesh"
	"github.com/san-kum/swaysim/internal/sim"
)

type outputsResponse struct {
	Time                  float64    `json:"time"`
	BuildingMass          float64    `json:"building_mass"`
	NaturalFreq           float64    `json:"natural_freq"`
	DamperFreq            float64    `json:"damper_freq"`
	ForcingFreq           float64    `json:"forcing_freq"`
	DampedAmplitude       float64    `json:"damped_amplitude"`
	ReferenceAmplitude    float64    `json:"reference_amplitude"`
	DamperSwingAmplitude  float64    `json:"damper_swing_amplitude"`
	Displacement          float64    `json:"displacement"`
	ReferenceDisplacement float64    `json:"reference_displacement"`
	DamperDisplacement    float64    `json:"damper_displacement"`
	DamperAngle           float64    `json:"damper_angle"`
	PendulumLength        float64    `json:"pendulum_length"`
	Anchor                [3]float64 `json:"anchor"`
	Overstressed          bool       `json:"overstressed"`
	Held                  bool       `json:"held"`
	Error                 string     `json:"error,omitempty"`
}

func newOutputsResponse(o sim.Outputs) outputsResponse {
	return outputsResponse{
		Time:                  o.Time,
		BuildingMass:          o.BuildingMass,
		NaturalFreq:           o.NaturalFreq,
		DamperFreq:            o.DamperFreq,
		ForcingFreq:           o.ForcingFreq,
		DampedAmplitude:       o.DampedAmplitude,
		ReferenceAmplitude:    o.ReferenceAmplitude,
		DamperSwingAmplitude:  o.DamperSwingAmplitude,
		Displacement:          o.Displacement,
		ReferenceDisplacement: o.ReferenceDisplacement,
		DamperDisplacement:    o.DamperDisplacement,
		DamperAngle:           o.DamperAngle,
		PendulumLength:        o.PendulumLength,
		Anchor:                [3]float64{o.Anchor.X, o.Anchor.Y, o.Anchor.Z},
	}
}

type geometryResponse struct {
	Building      string       `json:"building"`
	Segments      int          `json:"segments"`
	VertexCount   int          `json:"vertex_count"`
	TriangleCount int          `json:"triangle_count"`
	Vertices      [][3]float64 `json:"vertices"`
	UVs           [][2]float64 `json:"uvs"`
	Indices       []int        `json:"indices"`
	BoundsMn      [3]float64   `json:"bounds_min"`
	BoundsMx      [3]float64   `json:"bounds_max"`
	Anchor        [3]float64   `json:"anchor"`
	Floors        float64      `json:"floors"`
	TopBlank      float64      `json:"top_blank"`
}

func newGeometryResponse(b sim.Building, bent *mesh.Bent) geometryResponse {
	g := geometryResponse{
		Building:      b.String(),
		Segments:      bent.Rest.Params.Segments,
		VertexCount:   bent.Rest.VertexCount(),
		TriangleCount: bent.Rest.TriangleCount(),
		Vertices:      make([][3]float64, len(bent.Vertices)),
		UVs:           make([][2]float64, len(bent.Rest.UVs)),
		Indices:       bent.Indices(),
		BoundsMn:      [3]float64{bent.Bounds.Min.X, bent.Bounds.Min.Y, bent.Bounds.Min.Z},
		BoundsMx:      [3]float64{bent.Bounds.Max.X, bent.Bounds.Max.Y, bent.Bounds.Max.Z},
		Anchor:        [3]float64{bent.Anchor.X, bent.Anchor.Y, bent.Anchor.Z},
		Floors:        bent.Rest.Params.Floors(),
		TopBlank:      bent.Rest.Params.TopBlank,
	}
	for i, v := range bent.Vertices {
		g.Vertices[i] = [3]float64{v.X, v.Y, v.Z}
	}
	for i, uv := range bent.Rest.UVs {
		g.UVs[i] = [2]float64{uv.X, uv.Y}
	}
	return g
}

type historyResponse struct {
	Times    []float64 `json:"times"`
	WithTMD  []float64 `json:"with_tmd"`
	NoTMD    []float64 `json:"no_tmd"`
	MaxAbs   float64   `json:"max_abs"`
	Capacity int       `json:"capacity"`
}

type tickRequest struct {
	Dt float64 `json:"dt"`
}

type tuneResponse struct {
	DamperLength float64 `json:"damper_length"`
}

type errorResponse struct {
	Error string `json:"error"`
	Param string `json:"param,omitempty"`
}
