package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/swaysim/internal/mesh"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Building.Height != 50 {
		t.Errorf("expected height 50, got %f", cfg.Building.Height)
	}
	if cfg.Sim.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Sim.History != 400 {
		t.Errorf("expected history 400, got %d", cfg.Sim.History)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestParamsRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Damper.Mass = 12345
	cfg.Mesh.UVMode = string(mesh.UVNormalized)

	p := cfg.Params()
	if p.Dynamics.DamperMass != 12345 {
		t.Errorf("expected damper mass 12345, got %f", p.Dynamics.DamperMass)
	}
	if p.UVMode != mesh.UVNormalized {
		t.Errorf("expected normalized uv mode, got %s", p.UVMode)
	}
	if p.Calibration.Gravity != 9.81 {
		t.Errorf("expected g 9.81, got %f", p.Calibration.Gravity)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero dt", func(c *Config) { c.Sim.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Sim.Duration = -1 }},
		{"bad uv mode", func(c *Config) { c.Mesh.UVMode = "spherical" }},
		{"zero height", func(c *Config) { c.Building.Height = 0 }},
		{"zero damper length", func(c *Config) { c.Damper.Length = 0 }},
		{"no segments", func(c *Config) { c.Building.Segments = 0 }},
		{"anchor out of range", func(c *Config) { c.Mesh.AnchorFraction = 1.5 }},
		{"too many segments", func(c *Config) { c.Building.Segments = mesh.MaxSegments + 1 }},
		{"negative floor height", func(c *Config) { c.Mesh.FloorHeight = -1 }},
		{"zero meters per unit", func(c *Config) { c.Mesh.MetersPerUnit = 0 }},
		{"top blank above range", func(c *Config) { c.Mesh.TopBlank = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swaysim.yaml")
	cfg := DefaultConfig()
	cfg.Wind.Speed = 42
	cfg.Building.Segments = 64

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Wind.Speed != 42 || loaded.Building.Segments != 64 {
		t.Errorf("round trip lost values: %+v", loaded.Wind)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("wind:\n  speed: 12\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Wind.Speed != 12 {
		t.Errorf("expected speed 12, got %f", cfg.Wind.Speed)
	}
	if cfg.Building.Height != 50 {
		t.Errorf("expected default height, got %f", cfg.Building.Height)
	}
}

func TestValidateRejectsNaNFromFile(t *testing.T) {
	for _, field := range []string{"floor_height", "meters_per_unit", "top_blank"} {
		path := filepath.Join(t.TempDir(), field+".yaml")
		if err := os.WriteFile(path, []byte("mesh:\n  "+field+": .nan\n"), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("%s: load failed: %v", field, err)
		}
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected NaN to be rejected", field)
		}
	}
}

func TestSteps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sim.Dt = 0.02
	cfg.Sim.Duration = 2
	if cfg.Steps() != 100 {
		t.Errorf("expected 100 steps, got %d", cfg.Steps())
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("skyscraper")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Building.Height != 300 {
		t.Errorf("expected height 300, got %f", cfg.Building.Height)
	}
	cfg.Building.Height = 1
	if Presets["skyscraper"].Building.Height != 300 {
		t.Error("GetPreset must return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Fatal("expected presets")
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "SWAYSIM_WIND_SPEED=44\nSWAYSIM_SEGMENTS=32\nSWAYSIM_UV_MODE=normalized\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SWAYSIM_HEIGHT", "80")
	t.Setenv("SWAYSIM_WIND_SPEED", "20")
	t.Setenv("SWAYSIM_SEGMENTS", "")
	os.Unsetenv("SWAYSIM_SEGMENTS")
	t.Setenv("SWAYSIM_UV_MODE", "")
	os.Unsetenv("SWAYSIM_UV_MODE")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(envFile); err != nil {
		t.Fatalf("apply env failed: %v", err)
	}
	if cfg.Building.Height != 80 {
		t.Errorf("expected height 80, got %f", cfg.Building.Height)
	}
	if cfg.Wind.Speed != 20 {
		t.Errorf("process env must win over the file, got %f", cfg.Wind.Speed)
	}
	if cfg.Building.Segments != 32 {
		t.Errorf("expected segments from file, got %d", cfg.Building.Segments)
	}
	if cfg.Mesh.UVMode != "normalized" {
		t.Errorf("expected uv mode from file, got %s", cfg.Mesh.UVMode)
	}
}

func TestApplyEnvMissingFile(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing dotenv file should be ignored, got %v", err)
	}
}

func TestApplyEnvBadNumber(t *testing.T) {
	t.Setenv("SWAYSIM_DAMPER_MASS", "heavy")
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(filepath.Join(t.TempDir(), "absent.env")); err == nil {
		t.Error("expected parse error")
	}
}
