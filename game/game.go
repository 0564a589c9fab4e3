// Package game wires the engine to telemetry, rendering and input for the
// headless and graphical run modes.
package game

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/pthm-cable/physarum/camera"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/engine"
	"github.com/pthm-cable/physarum/palette"
	"github.com/pthm-cable/physarum/renderer"
	"github.com/pthm-cable/physarum/systems"
	"github.com/pthm-cable/physarum/telemetry"
)

// maxStepsPerUpdate caps the interactive speed control.
const maxStepsPerUpdate = 10

// Options configures a Game.
type Options struct {
	Seed            uint64
	Headless        bool
	LogStats        bool
	StatsWindow     int    // Iterations per telemetry flush; 0 uses config
	OutputDir       string // CSV logs and config snapshot; empty disables
	PopulationsFile string // YAML population configs applied after construction
	StepsPerUpdate  int
}

// Game holds the running simulation and everything attached to it.
type Game struct {
	cfg    *config.Config
	engine *engine.Engine
	pal    palette.Palette

	// Rendering (graphical mode only)
	sources  []renderer.FieldSource
	renderer *renderer.Renderer
	viewer   *renderer.Viewer
	camera   *camera.Camera

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	logStats      bool

	headless       bool
	paused         bool
	stepsPerUpdate int

	screenWidth, screenHeight float32
}

// NewGameWithOptions builds the engine from the global config and attaches
// telemetry. In graphical mode the raylib window must already exist.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	eng, err := engine.New(engine.OptionsFromConfig(cfg), cfg, rng)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	if opts.PopulationsFile != "" {
		if err := applyPopulationsFile(eng, opts.PopulationsFile); err != nil {
			eng.Close()
			return nil, err
		}
	}

	pal, err := palette.Get(eng.PaletteIndex())
	if err != nil {
		eng.Close()
		return nil, err
	}

	stepsPerUpdate := opts.StepsPerUpdate
	if stepsPerUpdate < 1 {
		stepsPerUpdate = 1
	}

	g := &Game{
		cfg:            cfg,
		engine:         eng,
		pal:            pal,
		logStats:       opts.LogStats,
		headless:       opts.Headless,
		stepsPerUpdate: stepsPerUpdate,
		screenWidth:    float32(cfg.Screen.Width),
		screenHeight:   float32(cfg.Screen.Height),
	}

	if err := g.initTelemetry(opts); err != nil {
		eng.Close()
		return nil, err
	}

	for _, f := range eng.Fields() {
		g.sources = append(g.sources, f)
	}
	g.renderer = renderer.New(eng.Width(), eng.Height(), renderer.OptionsFromConfig(cfg))

	if !opts.Headless {
		g.viewer = renderer.NewViewer()
		g.viewer.Init(eng.Width(), eng.Height())
		g.camera = camera.New(g.screenWidth, g.screenHeight, float32(eng.Width()), float32(eng.Height()))
	}

	slog.Info("engine ready",
		"seed", opts.Seed,
		"width", eng.Width(),
		"height", eng.Height(),
		"particles", eng.ParticleCount(),
		"populations", len(eng.Fields()),
		"palette", pal.Name,
	)
	eng.LogConfigurations(slog.Default())

	return g, nil
}

func applyPopulationsFile(eng *engine.Engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening populations file: %w", err)
	}
	defer f.Close()

	cfgs, err := systems.ReadPopulationConfigs(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return eng.SetPopulationConfigs(cfgs)
}

// Engine returns the underlying simulation engine.
func (g *Game) Engine() *engine.Engine { return g.engine }

// Tick returns the number of completed simulation steps.
func (g *Game) Tick() int { return g.engine.Iteration() }

// SaveImage renders the current fields and writes them as a PNG.
func (g *Game) SaveImage(path string) error {
	img := g.renderer.Render(g.sources, g.pal)
	if err := renderer.WritePNG(path, img); err != nil {
		return err
	}
	slog.Info("image written", "path", path, "iteration", g.Tick())
	return nil
}

// Unload flushes telemetry and releases all resources.
func (g *Game) Unload() {
	if _, err := g.collector.FlushPending(g.engine); err != nil {
		slog.Error("failed to flush telemetry", "error", err)
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if g.viewer != nil {
		g.viewer.Unload()
	}
	g.engine.Close()
}
