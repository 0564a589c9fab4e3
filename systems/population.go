package systems

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/physarum/config"
)

// ErrInvalidPopulationConfig is returned by PopulationConfig.Validate.
var ErrInvalidPopulationConfig = errors.New("invalid population config")

// PopulationConfig holds the behaviour parameters shared by every agent of a
// population. Angles are in radians.
type PopulationConfig struct {
	DepositionAmount float32 `yaml:"deposition_amount"` // Trail added per agent per step
	DecayFactor      float32 `yaml:"decay_factor"`      // Retention per diffusion pass, (0,1]
	SensorDistance   float32 `yaml:"sensor_distance"`
	SensorAngle      float32 `yaml:"sensor_angle"`
	RotationAngle    float32 `yaml:"rotation_angle"`
	StepDistance     float32 `yaml:"step_distance"`
}

// SamplePopulationConfig draws a config uniformly from the configured ranges.
func SamplePopulationConfig(rng *rand.Rand, cfg *config.Config) PopulationConfig {
	draw := func(r config.Range) float32 {
		return float32(distuv.Uniform{Min: r.Min, Max: r.Max, Src: rng}.Rand())
	}
	return PopulationConfig{
		SensorDistance:   draw(cfg.Sampling.SensorDistance),
		StepDistance:     draw(cfg.Sampling.StepDistance),
		DecayFactor:      draw(cfg.Sampling.DecayFactor),
		SensorAngle:      draw(cfg.Derived.SensorAngleRad),
		RotationAngle:    draw(cfg.Derived.RotationAngleRad),
		DepositionAmount: draw(cfg.Sampling.DepositionAmount),
	}
}

// Validate checks the documented parameter domains.
func (p PopulationConfig) Validate() error {
	if p.DepositionAmount < 0 {
		return fmt.Errorf("%w: deposition_amount %v < 0", ErrInvalidPopulationConfig, p.DepositionAmount)
	}
	if p.DecayFactor <= 0 || p.DecayFactor > 1 {
		return fmt.Errorf("%w: decay_factor %v not in (0,1]", ErrInvalidPopulationConfig, p.DecayFactor)
	}
	return nil
}

// LogValue implements slog.LogValuer for structured logging.
func (p PopulationConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("deposition_amount", float64(p.DepositionAmount)),
		slog.Float64("decay_factor", float64(p.DecayFactor)),
		slog.Float64("sensor_distance", float64(p.SensorDistance)),
		slog.Float64("sensor_angle", float64(p.SensorAngle)),
		slog.Float64("rotation_angle", float64(p.RotationAngle)),
		slog.Float64("step_distance", float64(p.StepDistance)),
	)
}

// populationFile is the on-disk layout of a population config list.
type populationFile struct {
	Populations []PopulationConfig `yaml:"populations"`
}

// ReadPopulationConfigs decodes a YAML population list and validates every entry.
func ReadPopulationConfigs(r io.Reader) ([]PopulationConfig, error) {
	var f populationFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding population configs: %w", err)
	}
	for i, p := range f.Populations {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("population %d: %w", i, err)
		}
	}
	return f.Populations, nil
}

// WritePopulationConfigs encodes a population list as YAML.
func WritePopulationConfigs(w io.Writer, cfgs []PopulationConfig) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(populationFile{Populations: cfgs}); err != nil {
		return fmt.Errorf("encoding population configs: %w", err)
	}
	return enc.Close()
}
