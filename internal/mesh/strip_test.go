package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/swaysim/internal/dynamo"
)

func TestBuildCounts(t *testing.T) {
	for _, n := range []int{1, 2, 7, 100, 400} {
		p := DefaultParams()
		p.Segments = n
		geo, err := Build(p)
		if err != nil {
			t.Fatalf("segments=%d: build failed: %v", n, err)
		}

		if geo.VertexCount() != 2*(n+1) {
			t.Errorf("segments=%d: expected %d vertices, got %d", n, 2*(n+1), geo.VertexCount())
		}
		if len(geo.UVs) != geo.VertexCount() {
			t.Errorf("segments=%d: expected %d uvs, got %d", n, geo.VertexCount(), len(geo.UVs))
		}
		indices := geo.Indices()
		if len(indices) != 6*n {
			t.Errorf("segments=%d: expected %d indices, got %d", n, 6*n, len(indices))
		}
		for _, idx := range indices {
			if idx < 0 || idx >= geo.VertexCount() {
				t.Fatalf("segments=%d: index %d out of range", n, idx)
			}
		}
	}
}

func TestBuildLayout(t *testing.T) {
	p := DefaultParams()
	p.Width = 2
	p.Height = 10
	p.Segments = 4
	geo, err := Build(p)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	for i := 0; i <= 4; i++ {
		l, r := Row(i)
		y := float64(i) * 2.5
		if geo.Vertices[l] != (dynamo.Vec3{X: -1, Y: y}) {
			t.Errorf("row %d left: got %+v", i, geo.Vertices[l])
		}
		if geo.Vertices[r] != (dynamo.Vec3{X: 1, Y: y}) {
			t.Errorf("row %d right: got %+v", i, geo.Vertices[r])
		}
	}

	first := geo.Triangles[0]
	if first != (Triangle{0, 2, 1}) {
		t.Errorf("expected bl,tl,br winding, got %v", first)
	}
	second := geo.Triangles[1]
	if second != (Triangle{1, 2, 3}) {
		t.Errorf("expected br,tl,tr winding, got %v", second)
	}

	if geo.Bounds.Min != (dynamo.Vec3{X: -1}) || geo.Bounds.Max != (dynamo.Vec3{X: 1, Y: 10}) {
		t.Errorf("unexpected bounds %+v", geo.Bounds)
	}
}

func TestBuildUVs(t *testing.T) {
	p := DefaultParams()
	p.Height = 3
	p.Segments = 2
	p.MetersPerUnit = 10
	p.FloorHeight = 3

	geo, err := Build(p)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	top, _ := Row(2)
	if geo.UVs[top].Y != 10 {
		t.Errorf("expected 10 floors at the top, got %f", geo.UVs[top].Y)
	}

	p.UVMode = UVNormalized
	geo, _ = Build(p)
	if geo.UVs[top].Y != 1 {
		t.Errorf("expected normalized v=1 at the top, got %f", geo.UVs[top].Y)
	}

	p.FloorHeight = 0
	if p.Floors() != 1 {
		t.Errorf("expected a single floor for zero floor height, got %f", p.Floors())
	}
}

func TestBuildRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Params)
	}{
		{"zero segments", func(p *Params) { p.Segments = 0 }},
		{"zero width", func(p *Params) { p.Width = 0 }},
		{"negative height", func(p *Params) { p.Height = -1 }},
		{"too many segments", func(p *Params) { p.Segments = MaxSegments + 1 }},
		{"huge segments", func(p *Params) { p.Segments = math.MaxInt32 }},
		{"nan floor height", func(p *Params) { p.FloorHeight = math.NaN() }},
		{"negative floor height", func(p *Params) { p.FloorHeight = -3 }},
		{"zero meters per unit", func(p *Params) { p.MetersPerUnit = 0 }},
		{"inf meters per unit", func(p *Params) { p.MetersPerUnit = math.Inf(1) }},
		{"nan top blank", func(p *Params) { p.TopBlank = math.NaN() }},
		{"top blank above range", func(p *Params) { p.TopBlank = 0.95 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mod(&p)
			if _, err := Build(p); !errors.Is(err, dynamo.ErrDomain) {
				t.Errorf("expected domain error, got %v", err)
			}
		})
	}
}

func TestBuildAcceptsBounds(t *testing.T) {
	p := DefaultParams()
	p.Segments = MaxSegments
	p.TopBlank = MaxTopBlank
	if _, err := Build(p); err != nil {
		t.Errorf("expected max segments and top blank to build, got %v", err)
	}

	bare := Params{Width: 1, Height: 5, Segments: 4}
	geo, err := Build(bare)
	if err != nil {
		t.Fatalf("expected zero texture fields to build, got %v", err)
	}
	if geo.Params.Floors() != 1 {
		t.Errorf("expected a single floor, got %g", geo.Params.Floors())
	}
}

func TestCacheRebuildsOnKeyChange(t *testing.T) {
	c := NewCache()
	p := DefaultParams()

	g1, err := c.Get(p)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	g2, _ := c.Get(p)
	if g1 != g2 || c.Builds() != 1 {
		t.Errorf("expected cached geometry, builds=%d", c.Builds())
	}

	p.Segments = 10
	g3, _ := c.Get(p)
	if g3 == g1 || c.Builds() != 2 {
		t.Errorf("expected rebuild after segment change, builds=%d", c.Builds())
	}
	if g3.VertexCount() != 22 {
		t.Errorf("expected 22 vertices, got %d", g3.VertexCount())
	}

	p.Segments = 0
	if _, err := c.Get(p); err == nil {
		t.Error("expected error for invalid params")
	}
	if c.Current() != g3 {
		t.Error("invalid params should keep the previous rest shape")
	}
}
