package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in iterations (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	out := flag.String("out", "", "Write a PNG of the final fields to this path")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	populationsFile := flag.String("populations", "", "YAML file of population configs to apply")
	paletteIndex := flag.Int("palette", -1, "Palette index (-1 = use config)")
	populations := flag.Int("populations-count", 0, "Number of populations (0 = use config)")
	particles := flag.Int("particles", 0, "Requested particle count (0 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *paletteIndex >= 0 {
		cfg.Simulation.Palette = *paletteIndex
	}
	if *populations > 0 {
		cfg.Simulation.Populations = *populations
	}
	if *particles > 0 {
		cfg.Simulation.Particles = *particles
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}

	opts := game.Options{
		Seed:            rngSeed,
		Headless:        *headless,
		LogStats:        *logStats,
		StatsWindow:     *statsWindow,
		OutputDir:       *outputDir,
		PopulationsFile: *populationsFile,
		StepsPerUpdate:  *stepsPerUpdate,
	}

	if err := run(opts, cfg, *maxTicks, *out); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(opts game.Options, cfg *config.Config, maxTicks int, out string) error {
	if opts.Headless {
		// Headless mode - pure CPU simulation, no raylib needed
		g, err := game.NewGameWithOptions(opts)
		if err != nil {
			return err
		}
		defer g.Unload()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		slog.Info("starting headless simulation",
			"seed", opts.Seed,
			"max_ticks", maxTicks,
			"steps_per_update", opts.StepsPerUpdate,
		)

		for ctx.Err() == nil {
			g.UpdateHeadless()

			if maxTicks > 0 && g.Tick() >= maxTicks {
				slog.Info("max ticks reached", "tick", g.Tick())
				break
			}
		}
		if ctx.Err() != nil {
			slog.Info("interrupted", "tick", g.Tick())
		}
		return saveImage(g, out)
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Physarum")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if maxTicks > 0 && g.Tick() >= maxTicks {
			break
		}
	}
	return saveImage(g, out)
}

func saveImage(g *game.Game, path string) error {
	if path == "" {
		return nil
	}
	return g.SaveImage(path)
}
