package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/swaysim/internal/automation"
	"github.com/san-kum/swaysim/internal/config"
	"github.com/san-kum/swaysim/internal/export"
	"github.com/san-kum/swaysim/internal/metrics"
	"github.com/san-kum/swaysim/internal/optim"
	"github.com/san-kum/swaysim/internal/render"
	"github.com/san-kum/swaysim/internal/sim"
	"github.com/san-kum/swaysim/internal/storage"
	"github.com/san-kum/swaysim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	atTime      float64
	imgWidth    int
	imgHeight   int
	historySVG  bool
	gridLengths []float64
	gridMasses  []float64
	gridSteps   int
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	steady      bool
	trials      int
	windSpread  float64
	resSpread   float64
	seed        int64
)

// advance runs a fresh simulation for cfg up to time at and returns it.
func advance(ctx context.Context, cfg *config.Config, at float64) (*sim.Simulation, *sim.Result, error) {
	s, err := newSimulation(cfg)
	if err != nil {
		return nil, nil, err
	}
	if tuneFirst {
		if _, err := s.TuneDamper(); err != nil {
			return nil, nil, err
		}
	}
	steps := int(math.Round(at / cfg.Sim.Dt))
	if steps < 1 {
		steps = 1
	}
	res, err := s.Run(ctx, cfg.Sim.Dt, steps)
	if err != nil {
		return nil, nil, err
	}
	if !s.HasFrame() {
		return nil, nil, fmt.Errorf("no valid frame by t=%.3fs: %w", at, s.LastError())
	}
	return s, res, nil
}

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "render both buildings at a moment to WebP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, _, err := advance(cmd.Context(), cfg, atTime)
			if err != nil {
				return err
			}
			opts := render.DefaultOptions()
			opts.Width, opts.Height = imgWidth, imgHeight
			opts.DriftThreshold = cfg.Sim.DriftThreshold
			img, err := render.Snapshot(s.CurrentFrame(), opts)
			if err != nil {
				return err
			}
			path := outPath
			if path == "" {
				path = "snapshot.webp"
			}
			if err := withOutput(path, func(w io.Writer) error { return render.EncodeWebP(w, img) }); err != nil {
				return err
			}
			logger.Info("snapshot written", "path", path, "t", s.Time())
			return nil
		},
	}
	cmd.Flags().Float64Var(&atTime, "at", 1.0, "simulation time of the frame (s)")
	cmd.Flags().IntVar(&imgWidth, "px-width", 480, "image width")
	cmd.Flags().IntVar(&imgHeight, "px-height", 640, "image height")
	cmd.Flags().BoolVar(&tuneFirst, "tune", false, "tune the damper first")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file")
	return cmd
}

func svgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "svg",
		Short: "write the bent outlines (or the displacement history) as SVG",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, res, err := advance(cmd.Context(), cfg, atTime)
			if err != nil {
				return err
			}
			var doc string
			if historySVG {
				doc = export.HistorySVG(res.Times, res.WithTMD, res.NoTMD, imgWidth, imgHeight)
			} else {
				doc = export.GeometrySVG(s.CurrentFrame(), imgWidth, imgHeight, cfg.Sim.DriftThreshold)
			}
			return withOutput(outPath, func(w io.Writer) error {
				_, err := io.WriteString(w, doc)
				return err
			})
		},
	}
	cmd.Flags().Float64Var(&atTime, "at", 1.0, "simulation time of the frame (s)")
	cmd.Flags().IntVar(&imgWidth, "px-width", 400, "width")
	cmd.Flags().IntVar(&imgHeight, "px-height", 500, "height")
	cmd.Flags().BoolVar(&historySVG, "history", false, "plot displacement history instead of geometry")
	cmd.Flags().BoolVar(&tuneFirst, "tune", false, "tune the damper first")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (stdout when empty)")
	return cmd
}

func tuneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tune",
		Short: "compute the damper length that matches wd to wn",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := newSimulation(cfg)
			if err != nil {
				return err
			}
			before, err := s.Tick(0)
			if err != nil {
				return err
			}
			l, err := s.TuneDamper()
			if err != nil {
				return err
			}
			after, err := s.Tick(0)
			if err != nil {
				// an undamped tuned resonance has no finite amplitude
				logger.Warn("tuned configuration has no steady state", "err", err)
			}

			fmt.Printf("damper length: %.4fm -> %.4fm\n\n", cfg.Damper.Length, l)
			fmt.Println("before:")
			printOutputs(os.Stdout, storage.SummaryOf(before.Outputs))
			if err == nil {
				fmt.Println("\nafter:")
				printOutputs(os.Stdout, storage.SummaryOf(after.Outputs))
			}
			return nil
		},
	}
}

func optimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "grid search the damper length and mass for the least sway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(gridLengths) != 2 || len(gridMasses) != 2 {
				return fmt.Errorf("--lengths and --masses take a min,max pair")
			}
			p := cfg.Params()
			search := optim.NewGridSearch(
				optim.Linspace(gridLengths[0], gridLengths[1], gridSteps),
				optim.Linspace(gridMasses[0], gridMasses[1], gridSteps),
			)
			res, err := search.Search(cmd.Context(), p.Dynamics, p.Calibration)
			if err != nil {
				return err
			}

			base := p.Dynamics
			fmt.Printf("searched %d candidates\n\n", len(res.Grid))
			fmt.Printf("  %-14s %.4fm\n", "length", res.Best.DamperLength)
			fmt.Printf("  %-14s %s\n", "mass", viz.FormatMass(res.Best.DamperMass))
			fmt.Printf("  %-14s %s\n", "amplitude", viz.FormatAmplitude(res.Best.Amplitude))
			fmt.Printf("  %-14s %.4fm / %s\n", "configured", base.DamperLength, viz.FormatMass(base.DamperMass))

			// amplitude against length at the best mass
			curve := make([]float64, 0, gridSteps)
			for _, c := range res.Grid {
				if c.DamperMass == res.Best.DamperMass && c.Valid {
					curve = append(curve, c.Amplitude)
				}
			}
			if len(curve) > 1 {
				fmt.Println()
				fmt.Println(asciigraph.Plot(curve,
					asciigraph.Height(8),
					asciigraph.Width(60),
					asciigraph.Caption("amplitude (m) vs damper length at the best mass"),
				))
			}
			return nil
		},
	}
	cmd.Flags().Float64SliceVar(&gridLengths, "lengths", []float64{0.1, 20}, "damper length range (m)")
	cmd.Flags().Float64SliceVar(&gridMasses, "masses", []float64{5000, 500000}, "damper mass range (kg)")
	cmd.Flags().IntVar(&gridSteps, "steps", 60, "grid points per axis")
	return cmd
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter and tabulate the response",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			var results []automation.SweepResult
			if steady {
				if sweepParam != "resonance_ratio" {
					return fmt.Errorf("--steady only sweeps resonance_ratio")
				}
				results, err = automation.FrequencyResponse(cfg.Params(), optim.Linspace(sweepMin, sweepMax, sweepSteps))
			} else {
				results, err = automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
					Base:      cfg.Params(),
					ParamName: sweepParam,
					ParamMin:  sweepMin,
					ParamMax:  sweepMax,
					NumSteps:  sweepSteps,
					Duration:  cfg.Sim.Duration,
					Dt:        cfg.Sim.Dt,
				})
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tAMPLITUDE\tNO DAMPER\tPEAK\tPEAK NO DAMPER\tREDUCTION\n", sweepParam)
			with := make([]float64, 0, len(results))
			without := make([]float64, 0, len(results))
			for _, r := range results {
				fmt.Fprintf(w, "%.3f\t%.5f\t%.5f\t%.5f\t%.5f\t%.1f%%\n",
					r.ParamValue, r.DampedAmplitude, r.ReferenceAmplitude, r.PeakWithTMD, r.PeakNoTMD, r.Reduction)
				if !math.IsNaN(r.DampedAmplitude) && !math.IsNaN(r.ReferenceAmplitude) {
					with = append(with, r.DampedAmplitude)
					without = append(without, r.ReferenceAmplitude)
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if len(with) > 1 {
				fmt.Println()
				fmt.Println(asciigraph.PlotMany([][]float64{without, with},
					asciigraph.Height(10),
					asciigraph.Width(70),
					asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
					asciigraph.Caption("amplitude (m) across the sweep"),
				))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sweepParam, "param", "resonance_ratio", "parameter to sweep: "+fmt.Sprint(sim.ParamNames()))
	cmd.Flags().Float64Var(&sweepMin, "min", 50, "first value")
	cmd.Flags().Float64Var(&sweepMax, "max", 150, "last value")
	cmd.Flags().IntVar(&sweepSteps, "n", 21, "number of values")
	cmd.Flags().BoolVar(&steady, "steady", false, "closed-form amplitudes only, no ticking")
	return cmd
}

func monteCarloCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "estimate how often gusty wind overstresses the building",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
				Base:            cfg.Params(),
				WindSpread:      windSpread,
				ResonanceSpread: resSpread,
				NumTrials:       trials,
				Duration:        cfg.Sim.Duration,
				Dt:              cfg.Sim.Dt,
				DriftThreshold:  cfg.Sim.DriftThreshold,
				Seed:            seed,
			})
			if err != nil {
				return err
			}
			safe, over := automation.MonteCarloStats(results)
			peaks := make([]float64, len(results))
			for i, r := range results {
				peaks[i] = r.PeakWithTMD
			}
			fmt.Printf("trials: %d\n", len(results))
			fmt.Printf("safe: %d  overstressed: %d (%.1f%%)\n", safe, over, 100*float64(over)/float64(len(results)))
			fmt.Printf("drift threshold: %.3f\n\n", cfg.Sim.DriftThreshold)
			fmt.Println(asciigraph.Plot(peaks,
				asciigraph.Height(8),
				asciigraph.Width(70),
				asciigraph.Caption("peak sway with damper per trial (m)"),
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	cmd.Flags().Float64Var(&windSpread, "wind-spread", 10, "± wind speed (m/s)")
	cmd.Flags().Float64Var(&resSpread, "resonance-spread", 10, "± resonance percent points")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	return cmd
}

func scenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
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
			res, err := automation.RunScenario(cmd.Context(), s, sc)
			if err != nil {
				return err
			}

			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}
			runID, err := st.Save(sc.Name, sc.Dt, s.GetParams(), res.Result)
			if err != nil {
				return err
			}

			fmt.Printf("scenario: %s\n", sc.Name)
			if sc.Description != "" {
				fmt.Printf("%s\n", sc.Description)
			}
			fmt.Printf("run id: %s\n\n", runID)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "AT\tFIRED\tNOTE\tRESULT")
			for _, e := range res.Events {
				result := "ok"
				if e.Tuned > 0 {
					result = fmt.Sprintf("tuned l=%.4fm", e.Tuned)
				}
				if len(e.Errors) > 0 {
					result = fmt.Sprintf("%d rejected: %v", len(e.Errors), e.Errors[0])
				}
				fmt.Fprintf(w, "%.2fs\t%.3fs\t%s\t%s\n", e.At, e.Time, e.Note, result)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Println("\nmetrics:")
			printMetrics(os.Stdout, res.Metrics)
			return nil
		},
	}
}
