package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FieldStats holds a snapshot of one population's trail field and agents.
type FieldStats struct {
	Iteration  int `csv:"iteration"`
	Population int `csv:"population"`
	Agents     int `csv:"agents"`

	// Trail distribution
	Mean float64 `csv:"mean"`
	Std  float64 `csv:"std"`
	Min  float64 `csv:"min"`
	P50  float64 `csv:"p50"`
	P999 float64 `csv:"p999"`
	Max  float64 `csv:"max"`
	Mass float64 `csv:"mass"`

	// Heading alignment: circular mean and mean resultant length in [0,1]
	HeadingMean      float64 `csv:"heading_mean"`
	HeadingCoherence float64 `csv:"heading_coherence"`
}

// FieldView is the read side of a trail field.
type FieldView interface {
	Data() []float32
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeFieldStats summarises a field and the headings of its agents.
func ComputeFieldStats(iteration, population int, f FieldView, headings []float64) FieldStats {
	data := f.Data()
	values := make([]float64, len(data))
	for i, v := range data {
		values[i] = float64(v)
	}

	s := FieldStats{
		Iteration:  iteration,
		Population: population,
		Agents:     len(headings),
	}
	if len(values) > 0 {
		s.Mean, s.Std = stat.PopMeanStdDev(values, nil)
		s.Mass = floats.Sum(values)

		sort.Float64s(values)
		s.Min = values[0]
		s.Max = values[len(values)-1]
		s.P50 = Percentile(values, 0.5)
		s.P999 = Percentile(values, 0.999)
	}
	s.HeadingMean, s.HeadingCoherence = headingStats(headings)
	return s
}

// headingStats returns the circular mean and mean resultant length of angles.
func headingStats(angles []float64) (mean, coherence float64) {
	if len(angles) == 0 {
		return 0, 0
	}
	var sx, sy float64
	for _, a := range angles {
		sx += math.Cos(a)
		sy += math.Sin(a)
	}
	n := float64(len(angles))
	return stat.CircularMean(angles, nil), math.Hypot(sx/n, sy/n)
}

// LogValue implements slog.LogValuer for structured logging.
func (s FieldStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("iteration", s.Iteration),
		slog.Int("population", s.Population),
		slog.Int("agents", s.Agents),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("min", s.Min),
		slog.Float64("p50", s.P50),
		slog.Float64("p999", s.P999),
		slog.Float64("max", s.Max),
		slog.Float64("mass", s.Mass),
		slog.Float64("heading_mean", s.HeadingMean),
		slog.Float64("heading_coherence", s.HeadingCoherence),
	)
}

// LogStats logs the field stats using slog.
func (s FieldStats) LogStats() {
	slog.Info("field", "stats", s)
}
