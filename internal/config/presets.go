package config

import "sort"

func planet(name string, m float64, el ElementsConfig) BodyConfig {
	return BodyConfig{Name: name, Mass: m, Elements: &el}
}

var Presets = map[string]*Config{
	"two_body": {
		Integrator: "mikkola", Dt: 0.05, Duration: 200, G: 1, CenterOfMass: true, RecordEvery: 10,
		Megno: MegnoConfig{Delta: DefaultDelta},
		Bodies: []BodyConfig{
			{Name: "star", Mass: 1},
			planet("planet", 1e-3, ElementsConfig{A: 1, E: 0.05}),
		},
	},
	"sun_jupiter_saturn": {
		Integrator: "mikkola", Dt: 0.5, Duration: 2e4, G: 1, CenterOfMass: true, RecordEvery: 100,
		Megno: MegnoConfig{Enabled: true, Delta: DefaultDelta},
		Bodies: []BodyConfig{
			{Name: "sun", Mass: 1},
			planet("jupiter", 9.546e-4, ElementsConfig{A: 5.203, E: 0.0484, Inc: 0.0228, Node: 1.7536, Peri: 4.7800, F: 0.6}),
			planet("saturn", 2.858e-4, ElementsConfig{A: 9.537, E: 0.0539, Inc: 0.0434, Node: 1.9838, Peri: 5.9235, F: 2.9}),
		},
	},
	"chaotic_pair": {
		Integrator: "mikkola", Dt: 0.02, Duration: 2000, G: 1, CenterOfMass: true, RecordEvery: 50,
		Megno: MegnoConfig{Enabled: true, Delta: DefaultDelta},
		Bodies: []BodyConfig{
			{Name: "star", Mass: 1},
			planet("inner", 1e-3, ElementsConfig{A: 1, E: 0.05}),
			planet("outer", 1e-3, ElementsConfig{A: 1.15, E: 0.07, Peri: 2.1, F: 1.0}),
		},
	},
	"eccentric": {
		Integrator: "mikkola", Dt: 0.05, Duration: 500, G: 1, CenterOfMass: true, RecordEvery: 10,
		Megno: MegnoConfig{Enabled: true, Delta: DefaultDelta},
		Bodies: []BodyConfig{
			{Name: "star", Mass: 1},
			planet("comet", 1e-9, ElementsConfig{A: 1, E: 0.95}),
			planet("planet", 1e-3, ElementsConfig{A: 3, E: 0.1, F: 2}),
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
