package render

import (
	"image"
	"image/color"
	"math"
)

// Canvas is a software framebuffer in pixel coordinates, y down.
type Canvas struct {
	Img *image.NRGBA
}

func NewCanvas(w, h int, bg color.NRGBA) *Canvas {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = bg.R
		img.Pix[i+1] = bg.G
		img.Pix[i+2] = bg.B
		img.Pix[i+3] = bg.A
	}
	return &Canvas{Img: img}
}

func (c *Canvas) set(x, y int, col color.NRGBA) {
	if !image.Pt(x, y).In(c.Img.Rect) {
		return
	}
	i := c.Img.PixOffset(x, y)
	c.Img.Pix[i] = col.R
	c.Img.Pix[i+1] = col.G
	c.Img.Pix[i+2] = col.B
	c.Img.Pix[i+3] = col.A
}

// FillTriangle fills the triangle with pixel centres sampled against the
// three edge functions. Either winding is accepted.
func (c *Canvas) FillTriangle(x0, y0, x1, y1, x2, y2 float64, col color.NRGBA) {
	det := (x1-x0)*(y2-y0) - (x2-x0)*(y1-y0)
	if math.Abs(det) < 1e-12 {
		return
	}
	if det < 0 {
		x1, y1, x2, y2 = x2, y2, x1, y1
	}

	b := c.Img.Rect
	minX := max(int(math.Floor(math.Min(x0, math.Min(x1, x2)))), b.Min.X)
	maxX := min(int(math.Ceil(math.Max(x0, math.Max(x1, x2)))), b.Max.X-1)
	minY := max(int(math.Floor(math.Min(y0, math.Min(y1, y2)))), b.Min.Y)
	maxY := min(int(math.Ceil(math.Max(y0, math.Max(y1, y2)))), b.Max.Y-1)

	edge := func(ax, ay, bx, by, px, py float64) float64 {
		return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
	}
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			if edge(x0, y0, x1, y1, px, py) >= 0 &&
				edge(x1, y1, x2, y2, px, py) >= 0 &&
				edge(x2, y2, x0, y0, px, py) >= 0 {
				c.set(x, y, col)
			}
		}
	}
}

// Line draws a line of the given pixel thickness by stamping squares.
func (c *Canvas) Line(x0, y0, x1, y1, thickness float64, col color.NRGBA) {
	steps := int(math.Ceil(math.Hypot(x1-x0, y1-y0)))
	if steps < 1 {
		steps = 1
	}
	r := int(math.Max(thickness/2, 0))
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		cx := int(x0 + (x1-x0)*t)
		cy := int(y0 + (y1-y0)*t)
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				c.set(cx+dx, cy+dy, col)
			}
		}
	}
}

// Disc fills a circle of radius r.
func (c *Canvas) Disc(cx, cy, r float64, col color.NRGBA) {
	ri := int(math.Ceil(r))
	for dy := -ri; dy <= ri; dy++ {
		for dx := -ri; dx <= ri; dx++ {
			if float64(dx*dx+dy*dy) <= r*r {
				c.set(int(cx)+dx, int(cy)+dy, col)
			}
		}
	}
}
