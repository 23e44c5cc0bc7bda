package mesh

import (
	"fmt"

	"github.com/san-kum/swaysim/internal/dynamo"
)

// UVMode selects how the v texture coordinate runs up the strip.
type UVMode string

const (
	UVFloors     UVMode = "floors"
	UVNormalized UVMode = "normalized"
)

const (
	DefaultFloorHeight   = 3.0
	DefaultMetersPerUnit = 10.0
	DefaultTopBlank      = 0.1

	MaxSegments = 400
	MaxTopBlank = 0.9
)

// Params describes the rest shape in world units.
type Params struct {
	Width    float64
	Height   float64
	Segments int

	FloorHeight   float64 // metres per floor; 0 means a single floor
	MetersPerUnit float64
	TopBlank      float64
	UVMode        UVMode
}

func DefaultParams() Params {
	return Params{
		Width:         1,
		Height:        5,
		Segments:      100,
		FloorHeight:   DefaultFloorHeight,
		MetersPerUnit: DefaultMetersPerUnit,
		TopBlank:      DefaultTopBlank,
		UVMode:        UVFloors,
	}
}

func (p Params) Validate() error {
	if p.Segments < 1 || p.Segments > MaxSegments {
		return dynamo.NewDomainError("segments", float64(p.Segments), fmt.Sprintf("must be within [1, %d]", MaxSegments))
	}
	if err := dynamo.RequirePositive("width", p.Width); err != nil {
		return err
	}
	if err := dynamo.RequirePositive("height", p.Height); err != nil {
		return err
	}
	if err := dynamo.RequireNonNegative("floor_height", p.FloorHeight); err != nil {
		return err
	}
	if p.FloorHeight > 0 {
		if err := dynamo.RequirePositive("meters_per_unit", p.MetersPerUnit); err != nil {
			return err
		}
	} else if err := dynamo.RequireNonNegative("meters_per_unit", p.MetersPerUnit); err != nil {
		return err
	}
	if !dynamo.IsFinite(p.TopBlank) || p.TopBlank < 0 || p.TopBlank > MaxTopBlank {
		return dynamo.NewDomainError("top_blank", p.TopBlank, fmt.Sprintf("must be within [0, %g]", MaxTopBlank))
	}
	return nil
}

// Floors is the number of storeys drawn by the facade texture.
func (p Params) Floors() float64 {
	if p.FloorHeight <= 0 {
		return 1
	}
	return p.Height * p.MetersPerUnit / p.FloorHeight
}

// Triangle holds three vertex indices.
type Triangle [3]int

// Geometry is the rest shape of the strip.
type Geometry struct {
	Params    Params
	Vertices  []dynamo.Vec3
	UVs       []dynamo.Vec2
	Triangles []Triangle
	Bounds    dynamo.Box
}

func (g *Geometry) VertexCount() int   { return len(g.Vertices) }
func (g *Geometry) TriangleCount() int { return len(g.Triangles) }

// Indices flattens the triangles into the 6N index buffer a renderer expects.
func (g *Geometry) Indices() []int {
	out := make([]int, 0, len(g.Triangles)*3)
	for _, tri := range g.Triangles {
		out = append(out, tri[0], tri[1], tri[2])
	}
	return out
}

// Row returns the vertex indices of the left and right vertex in row i.
func Row(i int) (left, right int) {
	return 2 * i, 2*i + 1
}

// Build generates the rest shape: Segments+1 rows spanning y in [0, Height].
func Build(p Params) (*Geometry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := p.Segments
	g := &Geometry{
		Params:    p,
		Vertices:  make([]dynamo.Vec3, 2*(n+1)),
		UVs:       make([]dynamo.Vec2, 2*(n+1)),
		Triangles: make([]Triangle, 0, 2*n),
	}

	halfWidth := p.Width / 2
	floors := p.Floors()

	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		y := t * p.Height
		l, r := Row(i)

		g.Vertices[l] = dynamo.Vec3{X: -halfWidth, Y: y}
		g.Vertices[r] = dynamo.Vec3{X: halfWidth, Y: y}

		v := t
		if p.UVMode != UVNormalized {
			v = t * floors
		}
		g.UVs[l] = dynamo.Vec2{X: 0, Y: v}
		g.UVs[r] = dynamo.Vec2{X: 1, Y: v}
	}

	for i := 0; i < n; i++ {
		bl, br := Row(i)
		tl, tr := Row(i + 1)
		g.Triangles = append(g.Triangles,
			Triangle{bl, tl, br},
			Triangle{br, tl, tr},
		)
	}

	g.Bounds = dynamo.BoundsOf(g.Vertices)
	return g, nil
}
