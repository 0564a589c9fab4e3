// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Simulation SimulationConfig `yaml:"simulation"`
	Attraction AttractionConfig `yaml:"attraction"`
	Sampling   SamplingConfig   `yaml:"sampling"`
	Render     RenderConfig     `yaml:"render"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds trail field dimensions in cells. Both must be powers of two.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SimulationConfig holds engine construction parameters.
type SimulationConfig struct {
	Particles         int `yaml:"particles"`
	Populations       int `yaml:"populations"`
	DiffusionRadius   int `yaml:"diffusion_radius"`
	Palette           int `yaml:"palette"`
	Workers           int `yaml:"workers"`            // 0 = GOMAXPROCS
	ParallelThreshold int `yaml:"parallel_threshold"` // Below this agent count the update runs inline
}

// AttractionConfig holds the normal distributions the attraction table is drawn from.
type AttractionConfig struct {
	SelfMean  float64 `yaml:"self_mean"`
	SelfStd   float64 `yaml:"self_std"`
	OtherMean float64 `yaml:"other_mean"`
	OtherStd  float64 `yaml:"other_std"`
}

// Range is a closed interval for uniform sampling.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// SamplingConfig holds the ranges population configs are sampled from.
// Angles are in degrees.
type SamplingConfig struct {
	SensorAngle      Range `yaml:"sensor_angle"`
	SensorDistance   Range `yaml:"sensor_distance"`
	RotationAngle    Range `yaml:"rotation_angle"`
	StepDistance     Range `yaml:"step_distance"`
	DepositionAmount Range `yaml:"deposition_amount"`
	DecayFactor      Range `yaml:"decay_factor"`
}

// RenderConfig holds the field-to-colour mapping parameters.
type RenderConfig struct {
	Quantile float64 `yaml:"quantile"` // Fraction used as the normalisation reference
	Headroom float64 `yaml:"headroom"` // Reference value multiplier
	Gamma    float64 `yaml:"gamma"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"`
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SensorAngleRad   Range   // Sampling.SensorAngle in radians
	RotationAngleRad Range   // Sampling.RotationAngle in radians
	InvGamma32       float32 // 1 / Render.Gamma
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

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
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

// Defaults returns a fresh copy of the embedded defaults.
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
	c.Derived.SensorAngleRad = c.Sampling.SensorAngle.radians()
	c.Derived.RotationAngleRad = c.Sampling.RotationAngle.radians()

	gamma := c.Render.Gamma
	if gamma <= 0 {
		gamma = 1
	}
	c.Derived.InvGamma32 = float32(1 / gamma)
}

func (r Range) radians() Range {
	return Range{Min: r.Min * math.Pi / 180, Max: r.Max * math.Pi / 180}
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
