// Package main provides CMA-ES search for population configs that produce
// well-structured trail networks.
package main

import (
	"fmt"
	"math"

	"github.com/pthm-cable/physarum/systems"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// populationSpecs are the per-population parameters, in PopulationConfig order.
var populationSpecs = []ParamSpec{
	{Name: "deposition_amount", Min: 0.5, Max: 10, Default: 5},
	{Name: "decay_factor", Min: 0.05, Max: 0.95, Default: 0.1},
	{Name: "sensor_distance", Min: 1, Max: 64, Default: 20},
	{Name: "sensor_angle", Min: 0, Max: 2 * math.Pi / 3, Default: math.Pi / 4},
	{Name: "rotation_angle", Min: 0, Max: 2 * math.Pi / 3, Default: math.Pi / 4},
	{Name: "step_distance", Min: 0.2, Max: 2, Default: 1},
}

// ParamVector holds the set of all optimizable parameters: one block of
// populationSpecs per population.
type ParamVector struct {
	Specs       []ParamSpec
	Populations int
}

// NewParamVector creates the parameter set for n populations.
func NewParamVector(n int) *ParamVector {
	pv := &ParamVector{Populations: n}
	for p := 0; p < n; p++ {
		for _, s := range populationSpecs {
			s.Name = fmt.Sprintf("p%d_%s", p, s.Name)
			pv.Specs = append(pv.Specs, s)
		}
	}
	return pv
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ToPopulationConfigs clamps values and maps them to one config per population.
func (pv *ParamVector) ToPopulationConfigs(values []float64) []systems.PopulationConfig {
	clamped := pv.Clamp(values)
	cfgs := make([]systems.PopulationConfig, pv.Populations)
	for p := range cfgs {
		v := clamped[p*len(populationSpecs):]
		cfgs[p] = systems.PopulationConfig{
			DepositionAmount: float32(v[0]),
			DecayFactor:      float32(v[1]),
			SensorDistance:   float32(v[2]),
			SensorAngle:      float32(v[3]),
			RotationAngle:    float32(v[4]),
			StepDistance:     float32(v[5]),
		}
	}
	return cfgs
}

// FromPopulationConfigs extracts parameter values, e.g. to seed the search
// from a previous result.
func (pv *ParamVector) FromPopulationConfigs(cfgs []systems.PopulationConfig) []float64 {
	v := make([]float64, 0, len(pv.Specs))
	for p := 0; p < pv.Populations; p++ {
		c := cfgs[p]
		v = append(v,
			float64(c.DepositionAmount),
			float64(c.DecayFactor),
			float64(c.SensorDistance),
			float64(c.SensorAngle),
			float64(c.RotationAngle),
			float64(c.StepDistance),
		)
	}
	return v
}
