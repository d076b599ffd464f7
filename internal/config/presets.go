package config

import "sort"

// Preset is a named tuning run.
type Preset struct {
	Description   string
	Gains         GainsConfig
	BaseSpeed     int
	MaxIterations int
}

var Presets = map[string]*Preset{
	"classic": {
		Description:   "proportional steering at walking pace",
		Gains:         GainsConfig{Kp: 0.9},
		BaseSpeed:     20,
		MaxIterations: 500,
	},
	"cautious": {
		Description:   "slow with a little damping",
		Gains:         GainsConfig{Kp: 0.7, Kd: 0.2},
		BaseSpeed:     12,
		MaxIterations: 1000,
	},
	"fast": {
		Description:   "high speed, stiffer steering",
		Gains:         GainsConfig{Kp: 1.4, Kd: 0.4},
		BaseSpeed:     40,
		MaxIterations: 300,
	},
	"integral": {
		Description:   "adds integral action for biased sensors",
		Gains:         GainsConfig{Kp: 0.9, Ki: 0.01, Kd: 0.1},
		BaseSpeed:     20,
		MaxIterations: 500,
	},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply overrides the tuning fields of cfg.
func (p *Preset) Apply(cfg *Config) {
	cfg.Gains = p.Gains
	cfg.BaseSpeed = p.BaseSpeed
	cfg.MaxIterations = p.MaxIterations
}
