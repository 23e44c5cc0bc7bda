package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/san-kum/swaysim/internal/config"
	"github.com/san-kum/swaysim/internal/metrics"
	"github.com/san-kum/swaysim/internal/server"
	"github.com/san-kum/swaysim/internal/sim"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var (
	addr      string
	streamFPS float64
	overwrite bool
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve outputs and geometry over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			s, err := newSimulation(cfg)
			if err != nil {
				return err
			}
			for _, m := range metrics.Default(cfg.Sim.DriftThreshold) {
				s.AddMetric(m)
			}
			api := server.New(s, sim.NewHistory(cfg.Sim.History, cfg.Sim.SampleInterval), server.Options{
				Rate:           cfg.Server.Rate,
				Burst:          cfg.Server.Burst,
				DriftThreshold: cfg.Sim.DriftThreshold,
				Logger:         logger,
			})

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           api.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", cfg.Server.Addr, "rate", cfg.Server.Rate, "burst", cfg.Server.Burst)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-cmd.Context().Done():
			}
			logger.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	return cmd
}

// streamLine is one tick of the stream command's JSON lines output.
type streamLine struct {
	Time                  float64 `json:"t"`
	Displacement          float64 `json:"x"`
	ReferenceDisplacement float64 `json:"x_ref"`
	DamperAngle           float64 `json:"damper_angle"`
	DampedAmplitude       float64 `json:"amplitude"`
	ReferenceAmplitude    float64 `json:"amplitude_ref"`
	Overstressed          bool    `json:"overstressed"`
	Error                 string  `json:"error,omitempty"`
}

func streamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "tick in real time and print outputs as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := newSimulation(cfg)
			if err != nil {
				return err
			}
			if streamFPS <= 0 {
				return fmt.Errorf("--fps must be positive")
			}
			limiter := rate.NewLimiter(rate.Limit(streamFPS), 1)
			enc := json.NewEncoder(os.Stdout)
			ctx := cmd.Context()

			for i := 0; i < cfg.Steps(); i++ {
				if err := limiter.Wait(ctx); err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				f, tickErr := s.Tick(cfg.Sim.Dt)
				line := streamLine{
					Time:                  s.Time(),
					Displacement:          f.Displacement,
					ReferenceDisplacement: f.ReferenceDisplacement,
					DamperAngle:           f.DamperAngle,
					DampedAmplitude:       f.DampedAmplitude,
					ReferenceAmplitude:    f.ReferenceAmplitude,
					Overstressed:          metrics.Overstressed(f.Displacement, f.Height, cfg.Sim.DriftThreshold),
				}
				if tickErr != nil {
					line.Error = tickErr.Error()
				}
				if err := enc.Encode(line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&streamFPS, "fps", 60, "ticks per wall-clock second")
	return cmd
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tHEIGHT\tWIDTH\tDAMPER L\tDAMPER M\tWIND\tRESONANCE")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.0fm\t%.0fm\t%.3fm\t%.0fkg\t%.0fm/s\t%.0f%%\n",
					name, p.Building.Height, p.Building.Width, p.Damper.Length, p.Damper.Mass, p.Wind.Speed, p.Wind.Resonance)
			}
			return w.Flush()
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "configuration helpers",
	}
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the effective configuration to a YAML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "swaysim.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !overwrite {
				return fmt.Errorf("%s exists (use --force)", path)
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
