package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/physarum/telemetry"
)

// initTelemetry creates the output directory, snapshots the run's
// configuration and sets up collectors.
func (g *Game) initTelemetry(opts Options) error {
	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return fmt.Errorf("creating output manager: %w", err)
	}
	if err := output.WriteConfig(g.cfg); err != nil {
		output.Close()
		return fmt.Errorf("writing config snapshot: %w", err)
	}
	if err := output.WritePopulations(g.engine.PopulationConfigs()); err != nil {
		output.Close()
		return fmt.Errorf("writing population configs: %w", err)
	}
	if output != nil {
		slog.Info("writing telemetry", "dir", output.Dir())
	}

	window := opts.StatsWindow
	if window <= 0 {
		window = g.cfg.Telemetry.StatsWindow
	}

	g.outputManager = output
	g.perfCollector = telemetry.NewPerfCollector(g.cfg.Telemetry.PerfCollectorWindow)
	g.collector = telemetry.NewCollector(window, output, g.perfCollector, g.logStats)
	g.engine.SetPerf(g.perfCollector)
	return nil
}

// flushTelemetry flushes field statistics once per stats window.
func (g *Game) flushTelemetry() {
	if _, err := g.collector.Observe(g.engine); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
}
