// Package report renders a stored run as a PDF summary.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/phpdave11/gofpdf"

	"github.com/san-kum/swaysim/internal/metrics"
	"github.com/san-kum/swaysim/internal/storage"
)

type Input struct {
	Title   string
	Run     *storage.RunMetadata
	Samples *storage.Samples
	// Chart, when set, is a PNG embedded in place of the drawn trace.
	Chart []byte
}

const (
	pageWidth   = 210.0
	margin      = 15.0
	chartHeight = 60.0
)

// WriteRunPDF writes an A4 report: run details, final outputs, metrics and
// a displacement chart of both buildings.
func WriteRunPDF(w io.Writer, in Input) error {
	if in.Run == nil {
		return errors.New("report: no run")
	}
	if in.Title == "" {
		in.Title = "Building Sway Report"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, in.Title)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", in.Run.ID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", in.Run.Timestamp.Format("2006-01-02 15:04")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Steps: %d at dt=%.4f s (%d rejected)", in.Run.Steps, in.Run.Dt, in.Run.Errors))
	pdf.Ln(10)

	f := in.Run.Final
	section(pdf, "Final outputs")
	table(pdf, [][2]string{
		{"Building mass", fmt.Sprintf("%.1f t", f.BuildingMass/1000)},
		{"Natural frequency wn", fmt.Sprintf("%.3f rad/s", f.NaturalFreq)},
		{"Damper frequency wd", fmt.Sprintf("%.3f rad/s", f.DamperFreq)},
		{"Forcing frequency w0", fmt.Sprintf("%.3f rad/s", f.ForcingFreq)},
		{"Amplitude with TMD", fmt.Sprintf("%.5f m", f.DampedAmplitude)},
		{"Amplitude without TMD", fmt.Sprintf("%.5f m", f.ReferenceAmplitude)},
		{"Damper swing", fmt.Sprintf("%.5f m", f.DamperSwingAmplitude)},
	})

	if len(in.Run.Params) > 0 {
		section(pdf, "Parameters")
		table(pdf, sortedRows(in.Run.Params))
	}
	if len(in.Run.Metrics) > 0 {
		section(pdf, "Metrics")
		table(pdf, sortedRows(in.Run.Metrics))
	}

	if in.Samples != nil && in.Samples.Len() > 1 {
		section(pdf, "Displacement")
		pdf.SetFont("Helvetica", "", 10)
		pdf.Cell(0, 6, fmt.Sprintf("Peak reduction: %.1f%%", metrics.Reduction(in.Samples.WithTMD, in.Samples.NoTMD)))
		pdf.Ln(8)
		if in.Chart != nil {
			embedChart(pdf, in.Chart)
		} else {
			drawChart(pdf, in.Samples)
		}
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
}

func table(pdf *gofpdf.Fpdf, rows [][2]string) {
	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		pdf.CellFormat(70, 6, r[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, r[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func sortedRows(m map[string]float64) [][2]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][2]string, len(keys))
	for i, k := range keys {
		rows[i] = [2]string{k, fmt.Sprintf("%.6g", m[k])}
	}
	return rows
}

func embedChart(pdf *gofpdf.Fpdf, png []byte) {
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("chart", opts, bytes.NewReader(png))
	pdf.ImageOptions("chart", margin, pdf.GetY(), pageWidth-2*margin, 0, true, opts, 0, "")
}

// drawChart plots both series as polylines in a framed box.
func drawChart(pdf *gofpdf.Fpdf, s *storage.Samples) {
	x0, y0 := margin, pdf.GetY()
	width := pageWidth - 2*margin
	if y0+chartHeight > 297-margin {
		pdf.AddPage()
		y0 = pdf.GetY()
	}

	limit := 0.0
	for i := range s.Times {
		limit = math.Max(limit, math.Max(math.Abs(s.WithTMD[i]), math.Abs(s.NoTMD[i])))
	}
	if limit == 0 {
		limit = 1
	}
	t0, t1 := s.Times[0], s.Times[len(s.Times)-1]
	span := t1 - t0
	if span <= 0 {
		span = 1
	}

	pdf.SetDrawColor(160, 160, 160)
	pdf.SetLineWidth(0.2)
	pdf.Rect(x0, y0, width, chartHeight, "D")
	mid := y0 + chartHeight/2
	pdf.Line(x0, mid, x0+width, mid)

	px := func(t float64) float64 { return x0 + (t-t0)/span*width }
	py := func(v float64) float64 { return mid - v/limit*(chartHeight/2-2) }

	trace := func(series []float64, r, g, b int) {
		pdf.SetDrawColor(r, g, b)
		pdf.SetLineWidth(0.4)
		for i := 1; i < len(series) && i < len(s.Times); i++ {
			pdf.Line(px(s.Times[i-1]), py(series[i-1]), px(s.Times[i]), py(series[i]))
		}
	}
	trace(s.NoTMD, 200, 60, 60)
	trace(s.WithTMD, 40, 110, 200)

	pdf.SetY(y0 + chartHeight + 2)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 5, fmt.Sprintf("blue: with TMD, red: without TMD, range +/-%.4f m, %.2f s", limit, span))
	pdf.Ln(6)
}
