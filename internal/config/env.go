package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every variable read by ApplyEnv.
const EnvPrefix = "SWAYSIM_"

// envFloats maps variable suffixes to float fields.
var envFloats = map[string]func(c *Config) *float64{
	"HEIGHT":          func(c *Config) *float64 { return &c.Building.Height },
	"WIDTH":           func(c *Config) *float64 { return &c.Building.Width },
	"DAMPER_LENGTH":   func(c *Config) *float64 { return &c.Damper.Length },
	"DAMPER_MASS":     func(c *Config) *float64 { return &c.Damper.Mass },
	"WIND_SPEED":      func(c *Config) *float64 { return &c.Wind.Speed },
	"RESONANCE":       func(c *Config) *float64 { return &c.Wind.Resonance },
	"DAMPING":         func(c *Config) *float64 { return &c.Wind.Damping },
	"SCALE":           func(c *Config) *float64 { return &c.Mesh.Scale },
	"CUTOFF":          func(c *Config) *float64 { return &c.Mesh.Cutoff },
	"DT":              func(c *Config) *float64 { return &c.Sim.Dt },
	"DURATION":        func(c *Config) *float64 { return &c.Sim.Duration },
	"DRIFT_THRESHOLD": func(c *Config) *float64 { return &c.Sim.DriftThreshold },
	"SERVER_RATE":     func(c *Config) *float64 { return &c.Server.Rate },
}

var envInts = map[string]func(c *Config) *int{
	"SEGMENTS":     func(c *Config) *int { return &c.Building.Segments },
	"HISTORY":      func(c *Config) *int { return &c.Sim.History },
	"SERVER_BURST": func(c *Config) *int { return &c.Server.Burst },
}

var envStrings = map[string]func(c *Config) *string{
	"LOG_LEVEL":   func(c *Config) *string { return &c.LogLevel },
	"UV_MODE":     func(c *Config) *string { return &c.Mesh.UVMode },
	"SERVER_ADDR": func(c *Config) *string { return &c.Server.Addr },
}

// ApplyEnv loads the given dotenv files (".env" when none are named) into
// the process environment and then overrides c from SWAYSIM_* variables.
// Missing dotenv files are ignored; variables already set win over files.
func (c *Config) ApplyEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	for key, field := range envFloats {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*field(c) = f
		}
	}
	for key, field := range envInts {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*field(c) = n
		}
	}
	for key, field := range envStrings {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*field(c) = v
		}
	}
	return nil
}
