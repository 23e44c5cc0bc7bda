package mesh

import (
	"math"

	"github.com/san-kum/swaysim/internal/dynamo"
)

const (
	// MinOffset is the smallest tip offset that is bent at all.
	MinOffset = 1e-5

	radiusIterations = 5
	minSlope         = 1e-6
	minRadiusFactor  = 0.25

	DefaultAnchorFraction = 0.75
)

// BendOptions controls a single deform.
type BendOptions struct {
	// Cutoff clamps |offset|; zero or negative disables the clamp.
	Cutoff float64
	// AnchorFraction is the relative height of the pendulum anchor row.
	AnchorFraction float64
}

// Bent is the per-tick deformed strip. It shares UVs and triangles with
// its rest shape.
type Bent struct {
	Rest     *Geometry
	Vertices []dynamo.Vec3
	Bounds   dynamo.Box
	Anchor   dynamo.Vec3

	Offset float64 // signed tip offset after the cutoff
	Radius float64 // +Inf for the identity bend
	Solve  RadiusSolve
}

func (b *Bent) UVs() []dynamo.Vec2       { return b.Rest.UVs }
func (b *Bent) Triangles() []Triangle    { return b.Rest.Triangles }
func (b *Bent) Indices() []int           { return b.Rest.Indices() }
func (b *Bent) Vertex(i int) dynamo.Vec3 { return b.Vertices[i] }

// Tip returns the centreline point at the top of the strip.
func (b *Bent) Tip() dynamo.Vec3 {
	l, r := Row(b.Rest.Params.Segments)
	return b.Vertex(l).Midpoint(b.Vertex(r))
}

// AnchorRow is the row nearest to the height fraction phi.
func AnchorRow(segments int, phi float64) int {
	phi = dynamo.Clamp(phi, 0, 1)
	return int(math.Round(phi * float64(segments)))
}

// AnchorPoint is the midpoint of the vertex pair in the row nearest to phi.
func AnchorPoint(vertices []dynamo.Vec3, segments int, phi float64) dynamo.Vec3 {
	l, r := Row(AnchorRow(segments, phi))
	return vertices[l].Midpoint(vertices[r])
}

// RadiusSolve records how the Newton refinement ended.
type RadiusSolve struct {
	Initial    float64
	Radius     float64
	Iterations int
	Stalled    bool // derivative underflow stopped the iteration
	Clamped    bool // result raised to the minimum radius
}

// SolveRadius finds R with R·(1-cos(h/R)) = offset using a fixed number
// of Newton steps from the small-angle guess h²/(2·offset).
func SolveRadius(height, offset float64) float64 {
	return solveRadius(height, offset).Radius
}

func solveRadius(height, offset float64) RadiusSolve {
	offset = math.Abs(offset)
	if offset < MinOffset {
		return RadiusSolve{Initial: math.Inf(1), Radius: math.Inf(1)}
	}

	r := height * height / (2 * offset)
	s := RadiusSolve{Initial: r}

	for i := 0; i < radiusIterations; i++ {
		theta := height / r
		sinT, cosT := math.Sincos(theta)

		f := r*(1-cosT) - offset
		df := 1 - cosT - theta*sinT
		if math.Abs(df) < minSlope {
			s.Stalled = true
			break
		}
		r -= f / df
		s.Iterations++
	}

	if minR := height * minRadiusFactor; !(r >= minR) {
		r = minR
		s.Clamped = true
	}
	s.Radius = r
	return s
}

// Deform bends the rest shape so the tip moves sideways by offset.
func Deform(rest *Geometry, offset float64, opts BendOptions) *Bent {
	dir := 1.0
	if offset < 0 {
		dir = -1
	}
	target := math.Abs(offset)
	if opts.Cutoff > 0 && target > opts.Cutoff {
		target = opts.Cutoff
	}
	phi := opts.AnchorFraction
	if phi == 0 {
		phi = DefaultAnchorFraction
	}

	out := &Bent{
		Rest:     rest,
		Vertices: make([]dynamo.Vec3, len(rest.Vertices)),
		Offset:   dir * target,
	}

	if target < MinOffset {
		copy(out.Vertices, rest.Vertices)
		out.Offset = 0
		out.Radius = math.Inf(1)
		out.Bounds = rest.Bounds
		out.Anchor = AnchorPoint(out.Vertices, rest.Params.Segments, phi)
		return out
	}

	height := rest.Params.Height
	halfWidth := rest.Params.Width / 2
	out.Solve = solveRadius(height, target)
	r := out.Solve.Radius
	out.Radius = r

	for i, v := range rest.Vertices {
		t := dynamo.Clamp(v.Y/height, 0, 1)
		angle := t * height / r
		sinA, cosA := math.Sincos(angle)

		xc := dir * r * (1 - cosA)
		yc := r * sinA

		tx, ty := dir*sinA, cosA
		var nx, ny float64
		if dir >= 0 {
			nx, ny = ty, -tx
		} else {
			nx, ny = -ty, tx
		}
		if l := math.Hypot(nx, ny); l > 0 {
			nx, ny = nx/l, ny/l
		}

		u := 0.0
		if halfWidth > 0 {
			u = dynamo.Clamp(v.X/halfWidth, -1, 1)
		}

		out.Vertices[i] = dynamo.Vec3{
			X: xc + u*halfWidth*nx,
			Y: yc + u*halfWidth*ny,
			Z: v.Z,
		}
	}

	out.Bounds = dynamo.BoundsOf(out.Vertices)
	out.Anchor = AnchorPoint(out.Vertices, rest.Params.Segments, phi)
	return out
}
