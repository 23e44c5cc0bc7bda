package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	vgdraw "gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// PlotHistoryPNG draws both displacement series against time as a PNG of
// widthIn x heightIn inches.
func PlotHistoryPNG(w io.Writer, times, withTMD, noTMD []float64, widthIn, heightIn float64) error {
	if len(times) < 2 {
		return errors.New("render: need at least two samples to plot")
	}
	if len(withTMD) != len(times) || len(noTMD) != len(times) {
		return fmt.Errorf("render: series lengths differ (%d, %d, %d)", len(times), len(withTMD), len(noTMD))
	}

	p := plot.New()
	p.Title.Text = "Roof displacement"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "displacement (m)"
	p.Add(plotter.NewGrid())

	series := []struct {
		name string
		ys   []float64
		col  color.Color
	}{
		{"without TMD", noTMD, color.RGBA{R: 200, G: 60, B: 60, A: 255}},
		{"with TMD", withTMD, color.RGBA{R: 40, G: 110, B: 200, A: 255}},
	}
	for _, s := range series {
		pts := make(plotter.XYs, len(times))
		for i := range times {
			pts[i].X = times[i]
			pts[i].Y = s.ys[i]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = s.col
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(96),
	)
	p.Draw(vgdraw.New(c))

	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
