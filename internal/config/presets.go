package config

import "sort"

// Presets are named starting points, each a full Config.
var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"tuned": func() *Config {
		c := DefaultConfig()
		c.Damper.Length = 0.635
		c.Wind.Resonance = 100
		return c
	}(),
	"light_damper": func() *Config {
		c := DefaultConfig()
		c.Damper.Mass = 5000
		return c
	}(),
	"off_resonance": func() *Config {
		c := DefaultConfig()
		c.Wind.Resonance = 60
		return c
	}(),
	"storm": func() *Config {
		c := DefaultConfig()
		c.Wind.Speed = 55
		c.Wind.Resonance = 98
		c.Sim.Duration = 20
		return c
	}(),
	"skyscraper": func() *Config {
		c := DefaultConfig()
		c.Building.Height = 300
		c.Building.Width = 40
		c.Building.Segments = 200
		c.Damper.Mass = 660000
		c.Damper.Length = 10
		c.Mesh.Scale = 50
		return c
	}(),
	"low_rise": func() *Config {
		c := DefaultConfig()
		c.Building.Height = 20
		c.Building.Width = 15
		c.Building.Segments = 40
		c.Damper.Length = 1
		c.Damper.Mass = 20000
		return c
	}(),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
