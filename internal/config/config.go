package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/swaysim/internal/mesh"
	"github.com/san-kum/swaysim/internal/physics"
	"github.com/san-kum/swaysim/internal/sim"
)

const (
	DefaultDt             = 1.0 / 60
	DefaultDuration       = 10.0
	DefaultHistory        = sim.DefaultHistoryCapacity
	DefaultSampleInterval = sim.DefaultSampleInterval
	DefaultDriftThreshold = 0.05
	DefaultAddr           = ":8080"
	DefaultRate           = 60.0
	DefaultBurst          = 10
)

type Config struct {
	LogLevel    string            `yaml:"log_level"`
	Building    BuildingConfig    `yaml:"building"`
	Damper      DamperConfig      `yaml:"damper"`
	Wind        WindConfig        `yaml:"wind"`
	Mesh        MeshConfig        `yaml:"mesh"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Sim         SimConfig         `yaml:"sim"`
	Server      ServerConfig      `yaml:"server"`
}

type BuildingConfig struct {
	Height   float64 `yaml:"height"`
	Width    float64 `yaml:"width"`
	Segments int     `yaml:"segments"`
}

type DamperConfig struct {
	Length float64 `yaml:"length"`
	Mass   float64 `yaml:"mass"`
}

type WindConfig struct {
	Speed     float64 `yaml:"speed"`
	Resonance float64 `yaml:"resonance"`
	Damping   float64 `yaml:"damping"`
}

type MeshConfig struct {
	Scale          float64 `yaml:"scale"`
	Cutoff         float64 `yaml:"cutoff"`
	FloorHeight    float64 `yaml:"floor_height"`
	MetersPerUnit  float64 `yaml:"meters_per_unit"`
	TopBlank       float64 `yaml:"top_blank"`
	AnchorFraction float64 `yaml:"anchor_fraction"`
	UVMode         string  `yaml:"uv_mode"`
}

type CalibrationConfig struct {
	Density         float64 `yaml:"density"`
	PeriodCoeff     float64 `yaml:"period_coeff"`
	Gravity         float64 `yaml:"gravity"`
	Gust            float64 `yaml:"gust"`
	Shape           float64 `yaml:"shape"`
	ReferenceLength float64 `yaml:"reference_length"`
	ReferenceMass   float64 `yaml:"reference_mass"`
	DeadZone        float64 `yaml:"dead_zone"`
}

type SimConfig struct {
	Dt             float64 `yaml:"dt"`
	Duration       float64 `yaml:"duration"`
	History        int     `yaml:"history"`
	SampleInterval float64 `yaml:"sample_interval"`
	DriftThreshold float64 `yaml:"drift_threshold"`
}

type ServerConfig struct {
	Addr  string  `yaml:"addr"`
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

func DefaultConfig() *Config {
	in := physics.DefaultInputs()
	cal := physics.DefaultCalibration()
	p := sim.DefaultParams()
	return &Config{
		LogLevel: "info",
		Building: BuildingConfig{
			Height:   in.Height,
			Width:    in.Width,
			Segments: p.Segments,
		},
		Damper: DamperConfig{
			Length: in.DamperLength,
			Mass:   in.DamperMass,
		},
		Wind: WindConfig{
			Speed:     in.WindSpeed,
			Resonance: in.ResonanceRatio,
			Damping:   in.DampingRatio,
		},
		Mesh: MeshConfig{
			Scale:          p.Scale,
			Cutoff:         p.Cutoff,
			FloorHeight:    p.FloorHeight,
			MetersPerUnit:  p.MetersPerUnit,
			TopBlank:       p.TopBlank,
			AnchorFraction: p.AnchorFraction,
			UVMode:         string(p.UVMode),
		},
		Calibration: CalibrationConfig{
			Density:         cal.Density,
			PeriodCoeff:     cal.PeriodCoeff,
			Gravity:         cal.Gravity,
			Gust:            cal.Gust,
			Shape:           cal.Shape,
			ReferenceLength: cal.ReferenceLength,
			ReferenceMass:   cal.ReferenceMass,
			DeadZone:        cal.DeadZone,
		},
		Sim: SimConfig{
			Dt:             DefaultDt,
			Duration:       DefaultDuration,
			History:        DefaultHistory,
			SampleInterval: DefaultSampleInterval,
			DriftThreshold: DefaultDriftThreshold,
		},
		Server: ServerConfig{
			Addr:  DefaultAddr,
			Rate:  DefaultRate,
			Burst: DefaultBurst,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params converts the file layout into simulation parameters.
func (c *Config) Params() sim.Params {
	return sim.Params{
		Dynamics: physics.Inputs{
			Height:         c.Building.Height,
			Width:          c.Building.Width,
			DamperLength:   c.Damper.Length,
			DamperMass:     c.Damper.Mass,
			WindSpeed:      c.Wind.Speed,
			ResonanceRatio: c.Wind.Resonance,
			DampingRatio:   c.Wind.Damping,
		},
		Calibration: physics.Calibration{
			Density:         c.Calibration.Density,
			PeriodCoeff:     c.Calibration.PeriodCoeff,
			Gravity:         c.Calibration.Gravity,
			Gust:            c.Calibration.Gust,
			Shape:           c.Calibration.Shape,
			ReferenceLength: c.Calibration.ReferenceLength,
			ReferenceMass:   c.Calibration.ReferenceMass,
			DeadZone:        c.Calibration.DeadZone,
		},
		Segments:       c.Building.Segments,
		Scale:          c.Mesh.Scale,
		Cutoff:         c.Mesh.Cutoff,
		AnchorFraction: c.Mesh.AnchorFraction,
		FloorHeight:    c.Mesh.FloorHeight,
		MetersPerUnit:  c.Mesh.MetersPerUnit,
		TopBlank:       c.Mesh.TopBlank,
		UVMode:         mesh.UVMode(c.Mesh.UVMode),
	}
}

// Steps is the number of ticks covering Duration at Dt.
func (c *Config) Steps() int {
	if c.Sim.Dt <= 0 {
		return 0
	}
	return int(c.Sim.Duration/c.Sim.Dt + 0.5)
}

func (c *Config) Validate() error {
	if c.Sim.Dt <= 0 {
		return fmt.Errorf("sim.dt must be positive, got %g", c.Sim.Dt)
	}
	if c.Sim.Duration <= 0 {
		return fmt.Errorf("sim.duration must be positive, got %g", c.Sim.Duration)
	}
	if c.Sim.History < 0 {
		return fmt.Errorf("sim.history must not be negative, got %d", c.Sim.History)
	}
	switch mesh.UVMode(c.Mesh.UVMode) {
	case mesh.UVFloors, mesh.UVNormalized:
	default:
		return fmt.Errorf("mesh.uv_mode must be %q or %q, got %q", mesh.UVFloors, mesh.UVNormalized, c.Mesh.UVMode)
	}
	return c.Params().Validate()
}
