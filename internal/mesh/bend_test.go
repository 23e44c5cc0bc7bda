package mesh

import (
	"math"
	"testing"

	. "github.com/onsi/gomega"
)

func buildTest(t *testing.T, width, height float64, segments int) *Geometry {
	t.Helper()
	p := DefaultParams()
	p.Width = width
	p.Height = height
	p.Segments = segments
	geo, err := Build(p)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return geo
}

func TestDeformIdentity(t *testing.T) {
	for _, n := range []int{1, 5, 100} {
		geo := buildTest(t, 3, 40, n)
		for _, offset := range []float64{0, 5e-6, -9e-6} {
			bent := Deform(geo, offset, BendOptions{})
			for i := range geo.Vertices {
				if bent.Vertices[i] != geo.Vertices[i] {
					t.Fatalf("n=%d offset=%g: vertex %d moved: %+v -> %+v", n, offset, i, geo.Vertices[i], bent.Vertices[i])
				}
			}
			if !math.IsInf(bent.Radius, 1) {
				t.Errorf("expected infinite radius, got %f", bent.Radius)
			}
		}
	}
}

func TestSolveRadiusConverges(t *testing.T) {
	g := NewWithT(t)

	r := SolveRadius(50, 5)
	g.Expect(r).To(BeNumerically(">=", 0.25*50))
	g.Expect(r * (1 - math.Cos(50/r))).To(BeNumerically("~", 5, 1e-3))
}

func TestSolveRadiusDegenerate(t *testing.T) {
	if r := SolveRadius(50, 0); !math.IsInf(r, 1) {
		t.Errorf("expected +Inf, got %f", r)
	}
	if r := SolveRadius(50, -5); math.Abs(r-SolveRadius(50, 5)) > 1e-12 {
		t.Errorf("expected sign-independent radius, got %f", r)
	}
}

func TestSolveRadiusClampsTightArc(t *testing.T) {
	s := solveRadius(10, 100)
	if s.Radius < 2.5 {
		t.Errorf("expected radius >= 2.5, got %f", s.Radius)
	}
}

func TestSolveRadiusStallsOnFlatDerivative(t *testing.T) {
	s := solveRadius(5, 1e-5)
	if !s.Stalled {
		t.Error("expected derivative underflow to stop the iteration")
	}
	if s.Radius != s.Initial {
		t.Errorf("expected the initial guess to be kept, got %f vs %f", s.Radius, s.Initial)
	}
}

func TestDeformTipMatchesTarget(t *testing.T) {
	g := NewWithT(t)
	geo := buildTest(t, 10, 50, 100)

	bent := Deform(geo, 5, BendOptions{})
	g.Expect(bent.Tip().X).To(BeNumerically("~", 5, 1e-3))

	bent = Deform(geo, -5, BendOptions{})
	g.Expect(bent.Tip().X).To(BeNumerically("~", -5, 1e-3))
}

func TestDeformCutoff(t *testing.T) {
	g := NewWithT(t)
	geo := buildTest(t, 10, 50, 100)

	for _, offset := range []float64{6, 20, -40} {
		bent := Deform(geo, offset, BendOptions{Cutoff: 5})
		g.Expect(math.Abs(bent.Offset)).To(Equal(5.0))
		g.Expect(math.Abs(bent.Tip().X)).To(BeNumerically("~", 5, 1e-3))
	}
}

func TestDeformMirrorSymmetry(t *testing.T) {
	geo := buildTest(t, 4, 30, 60)

	pos := Deform(geo, 2.5, BendOptions{})
	neg := Deform(geo, -2.5, BendOptions{})

	for i := range pos.Vertices {
		if neg.Vertices[i].X != -pos.Vertices[i].X || neg.Vertices[i].Y != pos.Vertices[i].Y {
			t.Fatalf("vertex %d not mirrored: %+v vs %+v", i, pos.Vertices[i], neg.Vertices[i])
		}
	}
}

func TestDeformKeepsThickness(t *testing.T) {
	g := NewWithT(t)
	geo := buildTest(t, 4, 30, 30)
	bent := Deform(geo, 3, BendOptions{})

	for i := 0; i <= 30; i++ {
		l, r := Row(i)
		width := bent.Vertices[r].Sub(bent.Vertices[l]).Length()
		g.Expect(width).To(BeNumerically("~", 4, 1e-9))
	}
}

func TestDeformBounds(t *testing.T) {
	geo := buildTest(t, 1, 5, 100)
	bent := Deform(geo, 0.4, BendOptions{Cutoff: 1})

	size := bent.Bounds.Size()
	if size.X > 1+2*1 {
		t.Errorf("bounds width %f exceeds width + 2*cutoff", size.X)
	}
	if bent.Bounds.Max.X < 0.4 {
		t.Errorf("bounds should include the bent tip, got %+v", bent.Bounds)
	}
}

func TestAnchorTracksHeightFraction(t *testing.T) {
	g := NewWithT(t)
	for _, n := range []int{4, 20, 100, 400} {
		geo := buildTest(t, 2, 40, n)
		bent := Deform(geo, 0, BendOptions{AnchorFraction: 0.75})
		g.Expect(bent.Anchor.Y).To(BeNumerically("~", 30, 40.0/float64(n)))
		g.Expect(bent.Anchor.X).To(BeNumerically("~", 0, 1e-12))
	}

	geo := buildTest(t, 2, 40, 100)
	if AnchorRow(100, 0.75) != 75 {
		t.Errorf("expected row 75, got %d", AnchorRow(100, 0.75))
	}
	bent := Deform(geo, 3, BendOptions{})
	l, r := Row(75)
	want := bent.Vertices[l].Midpoint(bent.Vertices[r])
	if bent.Anchor != want {
		t.Errorf("expected anchor %+v, got %+v", want, bent.Anchor)
	}
}
