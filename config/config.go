// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// FallbackDyeResolution is used when the device cannot filter float textures linearly.
const FallbackDyeResolution = 512

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Simulation SimulationConfig `yaml:"simulation"`
	Device     DeviceConfig     `yaml:"device"`
	Remote     RemoteConfig     `yaml:"remote"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Mixer      MixerConfig      `yaml:"mixer"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SimulationConfig holds the tunable fluid parameters.
// These are the values exposed to the control panel and the remote protocol.
type SimulationConfig struct {
	SimSpeed            float64 `yaml:"sim_speed"`            // dt multiplier
	SimResolution       int     `yaml:"sim_resolution"`       // velocity/pressure grid (short axis)
	DyeResolution       int     `yaml:"dye_resolution"`       // dye grid (short axis)
	CaptureResolution   int     `yaml:"capture_resolution"`   // stats and screenshot render (short axis)
	DensityDissipation  float64 `yaml:"density_dissipation"`  // dye fade toward white per second
	VelocityDissipation float64 `yaml:"velocity_dissipation"` // velocity decay per second
	Pressure            float64 `yaml:"pressure"`             // carry-over factor for the pressure seed
	PressureIterations  int     `yaml:"pressure_iterations"`  // Jacobi iterations per step
	Curl                float64 `yaml:"curl"`                 // vorticity confinement strength
	SplatRadius         float64 `yaml:"splat_radius"`         // percent of the short axis
	SplatForce          float64 `yaml:"splat_force"`          // pointer delta multiplier
	Paused              bool    `yaml:"paused"`
	Color               string  `yaml:"color"`           // Cyan, Magenta, Yellow, Black (anything else = white)
	ColorIntensity      float64 `yaml:"color_intensity"` // 0..100
	VortexStrength      float64 `yaml:"vortex_strength"` // continuous center vortex, 0 = damping only
}

// DeviceConfig describes the capabilities of the compute device.
// The CPU executor supports everything; these switches emulate weaker devices.
type DeviceConfig struct {
	LinearFiltering bool     `yaml:"linear_filtering"` // false = manual 4-tap bilinear + dye fallback resolution
	HalfFloat       bool     `yaml:"half_float"`       // quantize pass outputs through binary16
	Formats         []string `yaml:"formats"`          // renderable formats: r16f, rg16f, rgba16f
	Workers         int      `yaml:"workers"`          // kernel workers (0 = GOMAXPROCS)
}

// RemoteConfig holds the remote command client settings.
type RemoteConfig struct {
	Enabled        bool    `yaml:"enabled"`
	URL            string  `yaml:"url"`             // server to dial, e.g. ws://localhost:8030
	InitialBackoff float64 `yaml:"initial_backoff"` // seconds before the first reconnect
	MaxBackoff     float64 `yaml:"max_backoff"`     // reconnect interval cap in seconds
	WriteTimeout   float64 `yaml:"write_timeout"`   // seconds
}

// TelemetryConfig holds logging and metrics settings.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds between periodic stats logs
	PerfWindow  int     `yaml:"perf_window"`  // ticks averaged by the perf collector
	MetricsAddr string  `yaml:"metrics_addr"` // empty = metrics endpoint disabled
}

// MixerConfig holds the recipe sequencing and scoring parameters.
type MixerConfig struct {
	MaxColorVolume      float64 `yaml:"max_color_volume"`       // volume that maps to SPLAT_RADIUS 1
	MaxTotalColorVolume float64 `yaml:"max_total_color_volume"` // volume penalty saturation
	DispenseDelay       float64 `yaml:"dispense_delay"`         // seconds after each splat
	SettleTime          float64 `yaml:"settle_time"`            // seconds after the vortex stops
	AnalyzeTimeout      float64 `yaml:"analyze_timeout"`        // seconds to wait for a stats reply
	ColorWeight         float64 `yaml:"color_weight"`
	VolumeWeight        float64 `yaml:"volume_weight"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FormatsEnabled map[string]bool // Device.Formats as a set
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// Defaults returns a fresh copy of the embedded defaults with derived values computed.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	cfg.computeDerived()
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.FormatsEnabled = make(map[string]bool, len(c.Device.Formats))
	for _, f := range c.Device.Formats {
		c.Derived.FormatsEnabled[f] = true
	}

	// Without linear filtering the dye grid is sampled manually, which is
	// too slow at full quality.
	if !c.Device.LinearFiltering {
		c.Simulation.DyeResolution = FallbackDyeResolution
	}

	if c.Simulation.PressureIterations < 0 {
		c.Simulation.PressureIterations = 0
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
