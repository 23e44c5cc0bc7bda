package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/san-kum/swaysim/internal/config"
	"github.com/san-kum/swaysim/internal/sim"
	"github.com/san-kum/swaysim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	envFile    string
	preset     string
	logLevel   string
	theme      string

	// overrides, applied only when set on the command line
	height       float64
	width        float64
	segments     int
	damperLength float64
	damperMass   float64
	windSpeed    float64
	resonance    float64
	damping      float64
	scale        float64
	cutoff       float64
	dt           float64
	duration     float64

	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "swaysim"})
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "swaysim",
		Short: "tuned mass damper building sway simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(cmd)
		},
		RunE: runTUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".swaysim", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&envFile, "env", ".env", "dotenv file with SWAYSIM_* overrides")
	pf.StringVar(&preset, "preset", "", "start from a named preset")
	pf.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	pf.Float64Var(&height, "height", 0, "building height (m)")
	pf.Float64Var(&width, "width", 0, "building width (m)")
	pf.IntVar(&segments, "segments", 0, "mesh segments")
	pf.Float64Var(&damperLength, "damper-length", 0, "pendulum length (m)")
	pf.Float64Var(&damperMass, "damper-mass", 0, "damper mass (kg)")
	pf.Float64Var(&windSpeed, "wind", 0, "wind speed (m/s)")
	pf.Float64Var(&resonance, "resonance", 0, "forcing frequency, percent of wn")
	pf.Float64Var(&damping, "damping", 0, "damping ratio")
	pf.Float64Var(&scale, "scale", 0, "metres per world unit")
	pf.Float64Var(&cutoff, "cutoff", 0, "bend clamp (world units)")
	pf.Float64Var(&dt, "dt", 0, "timestep (s)")
	pf.Float64Var(&duration, "time", 0, "duration (s)")
	rootCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "colour theme: "+strings.Join(viz.ThemeNames(), ", "))

	rootCmd.AddCommand(
		runCmd(), listCmd(), plotCmd(), analyzeCmd(),
		exportCSVCmd(), exportJSONCmd(), exportXLSXCmd(), reportCmd(),
		snapshotCmd(), svgCmd(),
		tuneCmd(), optimizeCmd(), sweepCmd(), monteCarloCmd(), scenarioCmd(),
		serveCmd(), streamCmd(),
		presetsCmd(), configCmd(),
	)

	return rootCmd
}

// setupLogger resolves the level from the flag, then SWAYSIM_LOG_LEVEL.
func setupLogger(cmd *cobra.Command) error {
	level := logLevel
	if !cmd.Flags().Changed("log-level") {
		if v, ok := os.LookupEnv(config.EnvPrefix + "LOG_LEVEL"); ok {
			level = v
		}
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)
	return nil
}

// loadConfig layers defaults, preset, config file, environment and flags,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	floats := map[string]struct {
		val *float64
		dst *float64
	}{
		"height":        {&height, &cfg.Building.Height},
		"width":         {&width, &cfg.Building.Width},
		"damper-length": {&damperLength, &cfg.Damper.Length},
		"damper-mass":   {&damperMass, &cfg.Damper.Mass},
		"wind":          {&windSpeed, &cfg.Wind.Speed},
		"resonance":     {&resonance, &cfg.Wind.Resonance},
		"damping":       {&damping, &cfg.Wind.Damping},
		"scale":         {&scale, &cfg.Mesh.Scale},
		"cutoff":        {&cutoff, &cfg.Mesh.Cutoff},
		"dt":            {&dt, &cfg.Sim.Dt},
		"time":          {&duration, &cfg.Sim.Duration},
	}
	for name, f := range floats {
		if flags.Changed(name) {
			*f.dst = *f.val
		}
	}
	if flags.Changed("segments") {
		cfg.Building.Segments = segments
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newSimulation returns a configured simulation for cfg.
func newSimulation(cfg *config.Config) (*sim.Simulation, error) {
	s := sim.New(sim.WithLogger(logger))
	if err := s.Configure(cfg.Params()); err != nil {
		return nil, err
	}
	return s, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	// the alt screen owns the terminal
	logger.SetLevel(log.ErrorLevel)
	if preset == "" && configFile == "" && !anyOverride(cmd) {
		return viz.RunPicker(logger, theme)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := viz.FromConfig(cfg, logger)
	if err != nil {
		return err
	}
	title := "TUNED MASS DAMPER"
	if preset != "" {
		title = strings.ToUpper(preset)
	}
	return viz.Run(m.WithTitle(title).WithTheme(theme))
}

func anyOverride(cmd *cobra.Command) bool {
	for _, name := range []string{"height", "width", "segments", "damper-length", "damper-mass", "wind", "resonance", "damping", "scale", "cutoff", "dt"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}
