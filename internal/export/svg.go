package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/swaysim/internal/dynamo"
	"github.com/san-kum/swaysim/internal/mesh"
	"github.com/san-kum/swaysim/internal/metrics"
	"github.com/san-kum/swaysim/internal/sim"
)

// Outline returns the closed silhouette of a bent strip: up the left edge,
// down the right edge.
func Outline(b *mesh.Bent) []dynamo.Vec3 {
	n := len(b.Vertices) / 2
	out := make([]dynamo.Vec3, 0, 2*n)
	for i := 0; i < n; i++ {
		l, _ := mesh.Row(i)
		out = append(out, b.Vertices[l])
	}
	for i := n - 1; i >= 0; i-- {
		_, r := mesh.Row(i)
		out = append(out, b.Vertices[r])
	}
	return out
}

// PendulumBob is the damper mass position hanging from anchor.
func PendulumBob(anchor dynamo.Vec3, length, angleDeg float64) dynamo.Vec3 {
	s, c := math.Sincos(angleDeg * math.Pi / 180)
	return dynamo.Vec3{X: anchor.X + length*s, Y: anchor.Y - length*c, Z: anchor.Z}
}

// GeometrySVG draws the building with the damper on the right and the
// reference building on the left, the pendulum inside the former, in a
// width x height canvas. Overstressed buildings are drawn red.
func GeometrySVG(f sim.Frame, width, height int, driftThreshold float64) string {
	if f.Primary == nil || f.Reference == nil {
		return ""
	}

	restWidth := f.Primary.Rest.Bounds.Size().X
	gap := 3 * math.Max(restWidth, 1e-6)
	shift := func(pts []dynamo.Vec3, dx float64) []dynamo.Vec3 {
		out := make([]dynamo.Vec3, len(pts))
		for i, p := range pts {
			out[i] = dynamo.Vec3{X: p.X + dx, Y: p.Y, Z: p.Z}
		}
		return out
	}

	primary := shift(Outline(f.Primary), gap/2)
	reference := shift(Outline(f.Reference), -gap/2)
	anchor := f.Anchor
	anchor.X += gap / 2
	bob := PendulumBob(anchor, f.PendulumLength, f.DamperAngle)

	all := append(append([]dynamo.Vec3{}, primary...), reference...)
	all = append(all, anchor, bob)
	box := dynamo.BoundsOf(all)
	size := box.Size()
	pad := 0.1 * math.Max(size.X, size.Y)
	minX, maxX := box.Min.X-pad, box.Max.X+pad
	minY, maxY := box.Min.Y-pad, box.Max.Y+pad

	// uniform scale keeps the bend undistorted
	sx := float64(width) / (maxX - minX)
	sy := float64(height) / (maxY - minY)
	scale := math.Min(sx, sy)
	offX := (float64(width) - (maxX-minX)*scale) / 2
	offY := (float64(height) - (maxY-minY)*scale) / 2
	px := func(p dynamo.Vec3) (float64, float64) {
		return offX + (p.X-minX)*scale, float64(height) - offY - (p.Y-minY)*scale
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	ground := dynamo.Vec3{X: minX, Y: 0}
	gx0, gy := px(ground)
	gx1, _ := px(dynamo.Vec3{X: maxX, Y: 0})
	sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#444444" stroke-width="1"/>
`, gx0, gy, gx1, gy))

	polygon := func(id string, pts []dynamo.Vec3, stroke string) {
		sb.WriteString(fmt.Sprintf(`<polygon id="%s" fill="none" stroke="%s" stroke-width="1.5" points="`, id, stroke))
		for i, p := range pts {
			x, y := px(p)
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		}
		sb.WriteString("\"/>\n")
	}
	polygon("reference", reference, buildingColor(f.ReferenceDisplacement, f.Height, driftThreshold))
	polygon("primary", primary, buildingColor(f.Displacement, f.Height, driftThreshold))

	ax, ay := px(anchor)
	bx, by := px(bob)
	sb.WriteString(fmt.Sprintf(`<line id="pendulum" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#cccccc" stroke-width="1"/>
<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#ffcc00"/>
`, ax, ay, bx, by, bx, by, math.Max(2, restWidth*scale*0.08)))

	sb.WriteString("</svg>")
	return sb.String()
}

func buildingColor(disp, height, threshold float64) string {
	if metrics.Overstressed(disp, height, threshold) {
		return "#ff4444"
	}
	return "#44dd66"
}

// HistorySVG draws both displacement series against time.
func HistorySVG(times, withTMD, noTMD []float64, width, height int) string {
	if len(times) < 2 {
		return ""
	}

	limit := 0.0
	for i := range times {
		limit = math.Max(limit, math.Max(math.Abs(at(withTMD, i)), math.Abs(at(noTMD, i))))
	}
	if limit == 0 {
		limit = 1
	}
	t0, span := times[0], times[len(times)-1]-times[0]
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	path := func(series []float64, stroke string) {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
		for i := range times {
			x := (times[i] - t0) / span * float64(width)
			y := float64(height)/2 - at(series, i)/limit*float64(height)*0.45
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}
	path(noTMD, "#ff6666")
	path(withTMD, "#66aaff")

	sb.WriteString("</svg>")
	return sb.String()
}

func at(xs []float64, i int) float64 {
	if i < len(xs) {
		return xs[i]
	}
	return 0
}
