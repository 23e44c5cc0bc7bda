package render

import (
	"errors"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"github.com/san-kum/swaysim/internal/dynamo"
	"github.com/san-kum/swaysim/internal/export"
	"github.com/san-kum/swaysim/internal/mesh"
	"github.com/san-kum/swaysim/internal/metrics"
	"github.com/san-kum/swaysim/internal/sim"
)

var (
	Background = color.NRGBA{R: 12, G: 14, B: 20, A: 255}
	Ground     = color.NRGBA{R: 70, G: 70, B: 70, A: 255}
	Calm       = color.NRGBA{R: 90, G: 200, B: 120, A: 255}
	Stressed   = color.NRGBA{R: 220, G: 70, B: 70, A: 255}
	Roof       = color.NRGBA{R: 60, G: 60, B: 70, A: 255}
	Cable      = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	Mass       = color.NRGBA{R: 255, G: 200, B: 0, A: 255}
)

type Options struct {
	Width          int
	Height         int
	Supersample    int
	DriftThreshold float64
}

func DefaultOptions() Options {
	return Options{Width: 480, Height: 640, Supersample: 3, DriftThreshold: metrics.DefaultDriftThreshold}
}

// Snapshot rasterizes both bent buildings, the ground line and the damper
// pendulum at Supersample times the target size, then downsamples.
func Snapshot(f sim.Frame, opts Options) (*image.NRGBA, error) {
	if f.Primary == nil || f.Reference == nil {
		return nil, errors.New("render: frame has no geometry")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.New("render: image size must be positive")
	}
	ss := max(opts.Supersample, 1)
	w, h := opts.Width*ss, opts.Height*ss

	gap := 3 * math.Max(f.Primary.Rest.Bounds.Size().X, 1e-6)
	primaryDX, referenceDX := gap/2, -gap/2
	anchor := f.Anchor
	anchor.X += primaryDX
	bob := export.PendulumBob(anchor, f.PendulumLength, f.DamperAngle)

	pts := make([]dynamo.Vec3, 0, len(f.Primary.Vertices)+len(f.Reference.Vertices)+2)
	for _, v := range f.Primary.Vertices {
		pts = append(pts, dynamo.Vec3{X: v.X + primaryDX, Y: v.Y})
	}
	for _, v := range f.Reference.Vertices {
		pts = append(pts, dynamo.Vec3{X: v.X + referenceDX, Y: v.Y})
	}
	pts = append(pts, anchor, bob)
	vp := newViewport(dynamo.BoundsOf(pts), w, h)

	c := NewCanvas(w, h, Background)
	gx0, gy := vp.project(dynamo.Vec3{X: vp.minX, Y: 0})
	gx1, _ := vp.project(dynamo.Vec3{X: vp.maxX, Y: 0})
	c.Line(gx0, gy, gx1, gy, float64(ss), Ground)

	drawBuilding(c, vp, f.Reference, referenceDX, tint(f.ReferenceDisplacement, f.Height, opts.DriftThreshold))
	drawBuilding(c, vp, f.Primary, primaryDX, tint(f.Displacement, f.Height, opts.DriftThreshold))

	ax, ay := vp.project(anchor)
	bx, by := vp.project(bob)
	c.Line(ax, ay, bx, by, float64(ss), Cable)
	c.Disc(bx, by, math.Max(2*float64(ss), 0.08*f.Primary.Rest.Bounds.Size().X*vp.scale), Mass)

	return Downsample(c.Img, opts.Width, opts.Height), nil
}

func tint(disp, height, threshold float64) color.NRGBA {
	if metrics.Overstressed(disp, height, threshold) {
		return Stressed
	}
	return Calm
}

// drawBuilding fills every triangle; alternate floors are shaded darker
// using the v coordinate and the top blank band is drawn as roof.
func drawBuilding(c *Canvas, vp viewport, b *mesh.Bent, dx float64, base color.NRGBA) {
	uvs := b.UVs()
	floors := b.Rest.Params.Floors()
	if b.Rest.Params.UVMode == mesh.UVNormalized {
		floors = 1
	}
	blankFrom := floors * (1 - b.Rest.Params.TopBlank)

	for _, tri := range b.Triangles() {
		var xs, ys [3]float64
		v := 0.0
		for k, idx := range tri {
			p := b.Vertices[idx]
			p.X += dx
			xs[k], ys[k] = vp.project(p)
			v += uvs[idx].Y / 3
		}
		col := base
		switch {
		case b.Rest.Params.TopBlank > 0 && v >= blankFrom:
			col = Roof
		case int(math.Floor(v))%2 == 1:
			col = shade(base, 0.8)
		}
		c.FillTriangle(xs[0], ys[0], xs[1], ys[1], xs[2], ys[2], col)
	}
}

func shade(c color.NRGBA, k float64) color.NRGBA {
	return color.NRGBA{R: uint8(float64(c.R) * k), G: uint8(float64(c.G) * k), B: uint8(float64(c.B) * k), A: c.A}
}

type viewport struct {
	minX, maxX, minY, maxY float64
	scale, offX, offY      float64
	height                 int
}

func newViewport(box dynamo.Box, w, h int) viewport {
	size := box.Size()
	pad := 0.1 * math.Max(math.Max(size.X, size.Y), 1e-6)
	vp := viewport{
		minX:   box.Min.X - pad,
		maxX:   box.Max.X + pad,
		minY:   math.Min(box.Min.Y, 0) - pad,
		maxY:   box.Max.Y + pad,
		height: h,
	}
	vp.scale = math.Min(float64(w)/(vp.maxX-vp.minX), float64(h)/(vp.maxY-vp.minY))
	vp.offX = (float64(w) - (vp.maxX-vp.minX)*vp.scale) / 2
	vp.offY = (float64(h) - (vp.maxY-vp.minY)*vp.scale) / 2
	return vp
}

func (vp viewport) project(p dynamo.Vec3) (float64, float64) {
	return vp.offX + (p.X-vp.minX)*vp.scale, float64(vp.height) - vp.offY - (p.Y-vp.minY)*vp.scale
}

// Downsample scales img to w x h with Catmull-Rom filtering. Snapshots are
// opaque so no alpha premultiplication is needed.
func Downsample(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodeWebP writes img as lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	return nativewebp.Encode(w, img, nil)
}
