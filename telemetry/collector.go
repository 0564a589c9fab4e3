package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/physarum/systems"
)

// Source is the read side of a running simulation.
type Source interface {
	Iteration() int
	Fields() []*systems.TrailField
	Agents() []systems.Agent
}

// Collector samples field statistics once per window of iterations and
// forwards them, together with perf stats, to the log and the output manager.
type Collector struct {
	window    int
	lastFlush int
	logStats  bool

	output *OutputManager
	perf   *PerfCollector

	// Per-population heading scratch, reused across flushes
	headings [][]float64
}

// NewCollector creates a collector. window is in iterations; values below 1 mean 1.
// output and perf may be nil.
func NewCollector(window int, output *OutputManager, perf *PerfCollector, logStats bool) *Collector {
	if window < 1 {
		window = 1
	}
	return &Collector{
		window:   window,
		output:   output,
		perf:     perf,
		logStats: logStats,
	}
}

// Observe flushes when at least one window has passed since the last flush.
// It returns the flushed stats, or nil when no window boundary was crossed.
func (c *Collector) Observe(src Source) ([]FieldStats, error) {
	if src.Iteration()-c.lastFlush < c.window {
		return nil, nil
	}
	return c.Flush(src)
}

// Flush computes stats for every population now.
func (c *Collector) Flush(src Source) ([]FieldStats, error) {
	iteration := src.Iteration()
	fields := src.Fields()
	c.lastFlush = iteration

	if cap(c.headings) < len(fields) {
		c.headings = make([][]float64, len(fields))
	}
	c.headings = c.headings[:len(fields)]
	for i := range c.headings {
		c.headings[i] = c.headings[i][:0]
	}
	for _, a := range src.Agents() {
		c.headings[a.Population] = append(c.headings[a.Population], float64(a.Angle))
	}

	stats := make([]FieldStats, len(fields))
	for i, f := range fields {
		stats[i] = ComputeFieldStats(iteration, i, f, c.headings[i])
		if c.logStats {
			stats[i].LogStats()
		}
	}

	if err := c.output.WriteFieldStats(stats); err != nil {
		return stats, err
	}

	if c.perf != nil {
		perf := c.perf.Stats()
		if c.logStats {
			perf.LogStats()
		}
		if err := c.output.WritePerf(perf, iteration); err != nil {
			return stats, err
		}
	}

	slog.Debug("telemetry flushed", "iteration", iteration, "populations", len(fields))
	return stats, nil
}

// FlushPending flushes a partial window, if any iterations ran since the
// last flush.
func (c *Collector) FlushPending(src Source) ([]FieldStats, error) {
	if src.Iteration() == c.lastFlush {
		return nil, nil
	}
	return c.Flush(src)
}
