package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/swaysim/internal/analysis"
	"github.com/san-kum/swaysim/internal/metrics"
	"github.com/san-kum/swaysim/internal/render"
	"github.com/san-kum/swaysim/internal/report"
	"github.com/san-kum/swaysim/internal/storage"
	"github.com/san-kum/swaysim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	tuneFirst bool
	outPath   string
	pngPath   string
	withChart bool
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [name]",
		Short: "run a headless simulation and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	cmd.Flags().BoolVar(&tuneFirst, "tune", false, "tune the damper to wn before running")
	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	name := "run"
	if len(args) > 0 {
		name = args[0]
	} else if preset != "" {
		name = preset
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSimulation(cfg)
	if err != nil {
		return err
	}
	for _, m := range metrics.Default(cfg.Sim.DriftThreshold) {
		s.AddMetric(m)
	}
	if tuneFirst {
		if _, err := s.TuneDamper(); err != nil {
			return err
		}
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running %s for %.2fs...\n", name, cfg.Sim.Duration)
	start := time.Now()
	result, err := s.Run(context.Background(), cfg.Sim.Dt, cfg.Steps())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(name, cfg.Sim.Dt, s.GetParams(), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s (%s)\n", runID, filepath.Join(st.Dir(), runID))
	fmt.Printf("steps: %d (%d rejected)\n\n", result.StepsTaken, len(result.Errors))
	printOutputs(os.Stdout, storage.SummaryOf(result.Final))
	fmt.Printf("  %-14s %.1f%%\n", "reduction", metrics.Reduction(result.WithTMD, result.NoTMD))
	fmt.Println("\nmetrics:")
	printMetrics(os.Stdout, result.Metrics)
	return nil
}

func printOutputs(w io.Writer, o storage.Summary) {
	fmt.Fprintf(w, "  %-14s %s\n", "mass", viz.FormatMass(o.BuildingMass))
	fmt.Fprintf(w, "  %-14s %s\n", "amplitude", viz.FormatAmplitude(o.DampedAmplitude))
	fmt.Fprintf(w, "  %-14s %s\n", "no damper", viz.FormatAmplitude(o.ReferenceAmplitude))
	fmt.Fprintf(w, "  %-14s %s\n", "damper swing", viz.FormatAmplitude(o.DamperSwingAmplitude))
	fmt.Fprintf(w, "  %-14s %s\n", "wn", viz.FormatFrequency(o.NaturalFreq))
	fmt.Fprintf(w, "  %-14s %s\n", "wd", viz.FormatFrequency(o.DamperFreq))
	fmt.Fprintf(w, "  %-14s %s\n", "w0", viz.FormatFrequency(o.ForcingFreq))
}

func printMetrics(w io.Writer, m map[string]float64) {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(w, "  %-20s %.6f\n", k, m[k])
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tDT\tAMPLITUDE\tNO DAMPER")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			viz.FormatAmplitude(run.Final.DampedAmplitude),
			viz.FormatAmplitude(run.Final.ReferenceAmplitude),
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *storage.Samples, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return nil, nil, err
	}
	if samples.Len() == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, samples, nil
}

func plotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot displacement of both buildings",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	cmd.Flags().StringVar(&pngPath, "png", "", "also write the plot as PNG")
	return cmd
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", samples.Len())

	graph := asciigraph.PlotMany(
		[][]float64{samples.NoTMD, samples.WithTMD},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
		asciigraph.Caption("displacement (m): red without damper, green with"),
	)
	fmt.Println(graph)
	fmt.Println()
	fmt.Println(asciigraph.Plot(samples.DamperAngles,
		asciigraph.Height(6),
		asciigraph.Width(80),
		asciigraph.Caption("damper angle (deg)"),
	))

	if pngPath != "" {
		f, err := os.Create(pngPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := render.PlotHistoryPNG(f, samples.Times, samples.WithTMD, samples.NoTMD, 8, 4); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", pngPath)
	}
	return nil
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of both buildings",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	with, err := analysis.Summarize(samples.WithTMD, meta.Dt)
	if err != nil {
		return err
	}
	without, err := analysis.Summarize(samples.NoTMD, meta.Dt)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n\n", meta.ID)
	spectrum := analysis.Spectrum(samples.NoTMD)
	if n := len(spectrum) / 4; n > 2 {
		spectrum = spectrum[:n]
	}
	fmt.Println(asciigraph.Plot(spectrum,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("magnitude spectrum, no damper"),
	))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tPEAK\tRMS\tDOMINANT\tHZ")
	for _, row := range []struct {
		name string
		s    analysis.Summary
	}{{"with damper", with}, {"no damper", without}} {
		fmt.Fprintf(w, "%s\t%.5fm\t%.5fm\t%.3f rad/s\t%.3f\n", row.name, row.s.Peak, row.s.RMS, row.s.Dominant, row.s.Dominant/(2*math.Pi))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nforcing w0: %s   natural wn: %s\n", viz.FormatFrequency(meta.Final.ForcingFreq), viz.FormatFrequency(meta.Final.NaturalFreq))
	fmt.Printf("peak reduction: %.1f%%\n", metrics.Reduction(samples.WithTMD, samples.NoTMD))
	return nil
}

func exportCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, samples, err := loadRun(args[0])
			if err != nil {
				return err
			}
			return withOutput(outPath, func(w io.Writer) error {
				return storage.WriteCSV(w, samples)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (stdout when empty)")
	return cmd
}

func exportJSONCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and samples to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, samples, err := loadRun(args[0])
			if err != nil {
				return err
			}
			return withOutput(outPath, func(w io.Writer) error {
				return storage.ExportJSON(w, meta, samples)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (stdout when empty)")
	return cmd
}

func exportXLSXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-xlsx [run_id]",
		Short: "export run to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, samples, err := loadRun(args[0])
			if err != nil {
				return err
			}
			path := outPath
			if path == "" {
				path = meta.ID + ".xlsx"
			}
			if err := storage.ExportXLSX(path, meta, samples); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file")
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [run_id]",
		Short: "write a PDF report of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, samples, err := loadRun(args[0])
			if err != nil {
				return err
			}
			in := report.Input{Title: "Sway report: " + meta.Name, Run: meta, Samples: samples}
			if withChart {
				var buf bytes.Buffer
				if err := render.PlotHistoryPNG(&buf, samples.Times, samples.WithTMD, samples.NoTMD, 7, 3); err != nil {
					return err
				}
				in.Chart = buf.Bytes()
			}
			path := outPath
			if path == "" {
				path = meta.ID + ".pdf"
			}
			if err := withOutput(path, func(w io.Writer) error { return report.WriteRunPDF(w, in) }); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file")
	cmd.Flags().BoolVar(&withChart, "plot", false, "embed a rendered plot instead of the drawn trace")
	return cmd
}

// withOutput runs fn against path, or stdout when path is empty.
func withOutput(path string, fn func(w io.Writer) error) error {
	if path == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
