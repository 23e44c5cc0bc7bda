package viz

import (
	"math"
	"strings"

	"github.com/san-kum/swaysim/internal/dynamo"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	return c
}

// Set lights the sub-pixel (x, y). The canvas is Width*2 x Height*4
// sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the sub-pixel (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawDisc fills a disc of radius r sub-pixels.
func (c *Canvas) DrawDisc(cx, cy, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				c.Set(cx+dx, cy+dy)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		b.WriteString(string(row))
		if i < len(c.Grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Viewport maps world coordinates (y up) onto canvas sub-pixels (y down)
// with a uniform scale.
type Viewport struct {
	minX, minY float64
	scale      float64
	offX, offY float64
	h          float64
}

// Fit returns the viewport that shows box, padded by pad of its larger
// side, centred on a canvas of c's size.
func (c *Canvas) Fit(box dynamo.Box, pad float64) Viewport {
	size := box.Size()
	p := pad * math.Max(size.X, size.Y)
	minX, maxX := box.Min.X-p, box.Max.X+p
	minY, maxY := box.Min.Y-p, box.Max.Y+p
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)

	scale := 1.0
	if maxX > minX && maxY > minY {
		scale = math.Min(w/(maxX-minX), h/(maxY-minY))
	}
	return Viewport{
		minX:  minX,
		minY:  minY,
		scale: scale,
		offX:  (w - (maxX-minX)*scale) / 2,
		offY:  (h - (maxY-minY)*scale) / 2,
		h:     h,
	}
}

func (v Viewport) Project(p dynamo.Vec3) (int, int) {
	x := v.offX + (p.X-v.minX)*v.scale
	y := v.h - v.offY - (p.Y-v.minY)*v.scale
	return int(math.Round(x)), int(math.Round(y))
}

// Scale is sub-pixels per world unit.
func (v Viewport) Scale() float64 { return v.scale }

// DrawPolygon strokes the closed polygon pts.
func (c *Canvas) DrawPolygon(v Viewport, pts []dynamo.Vec3) {
	if len(pts) == 0 {
		return
	}
	px, py := v.Project(pts[len(pts)-1])
	for _, p := range pts {
		x, y := v.Project(p)
		c.DrawLine(px, py, x, y)
		px, py = x, y
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
