// Package engine runs the multi-population Physarum simulation: trail fields
// coupled through an attraction table, and agents that sense, steer and
// deposit on them.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/palette"
	"github.com/pthm-cable/physarum/systems"
	"github.com/pthm-cable/physarum/telemetry"
)

var (
	// ErrInvalidOptions is returned for non-positive counts or a negative radius.
	ErrInvalidOptions = errors.New("invalid engine options")
	// ErrConfigCount is returned when a bulk update supplies fewer configs than fields.
	ErrConfigCount = errors.New("not enough population configs")
)

// Options holds engine construction parameters.
type Options struct {
	Width, Height   int // Field size in cells; powers of two
	Particles       int // Requested agent count; rounded up to a multiple of Populations
	Populations     int
	DiffusionRadius int
	Palette         int // Index into the palette registry

	Workers           int // Agent update goroutines; 0 = GOMAXPROCS
	ParallelThreshold int // Agent count below which the update runs inline; 0 = default
}

// OptionsFromConfig builds Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Width:             cfg.World.Width,
		Height:            cfg.World.Height,
		Particles:         cfg.Simulation.Particles,
		Populations:       cfg.Simulation.Populations,
		DiffusionRadius:   cfg.Simulation.DiffusionRadius,
		Palette:           cfg.Simulation.Palette,
		Workers:           cfg.Simulation.Workers,
		ParallelThreshold: cfg.Simulation.ParallelThreshold,
	}
}

// Engine owns all trail fields, agents and the attraction table.
// It is not safe for concurrent use; Step parallelises internally.
type Engine struct {
	width, height int

	fields []*systems.TrailField
	agents []systems.Agent
	table  systems.AttractionTable

	// bufs[i] and datas[i] alias fields[i]'s buffers. Holding them as two
	// separate lists lets combine write one buf while reading every data.
	bufs  [][]float32
	datas [][]float32

	diffusionRadius   int
	paletteIndex      int
	iteration         int
	parallelThreshold int

	pool *workerPool
	perf *telemetry.PerfCollector

	closed bool
}

// New builds an engine. Construction draws, in order, the attraction table,
// the agents, then each field's config and initial trail from rng.
func New(opts Options, cfg *config.Config, rng *rand.Rand) (*Engine, error) {
	if opts.Populations < 1 || opts.Particles < 0 || opts.DiffusionRadius < 0 {
		return nil, fmt.Errorf("%w: populations=%d particles=%d radius=%d",
			ErrInvalidOptions, opts.Populations, opts.Particles, opts.DiffusionRadius)
	}
	if err := palette.Validate(opts.Palette); err != nil {
		return nil, err
	}

	// Fields are validated before anything is drawn so a bad size fails fast.
	fields := make([]*systems.TrailField, opts.Populations)
	for i := range fields {
		f, err := systems.NewTrailField(opts.Width, opts.Height, systems.PopulationConfig{}, systems.NewBoxBlur())
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}

	perPopulation := (opts.Particles + opts.Populations - 1) / opts.Populations
	n := perPopulation * opts.Populations

	table := systems.NewAttractionTable(opts.Populations, cfg.Attraction, rng)

	agents := make([]systems.Agent, n)
	for i := range agents {
		agents[i] = systems.NewAgent(uint64(i), i/perPopulation, opts.Width, opts.Height, rng)
	}

	for _, f := range fields {
		f.SetConfig(systems.SamplePopulationConfig(rng, cfg))
		f.Seed(rng)
	}

	threshold := opts.ParallelThreshold
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}

	e := &Engine{
		width:             opts.Width,
		height:            opts.Height,
		fields:            fields,
		agents:            agents,
		table:             table,
		bufs:              make([][]float32, len(fields)),
		datas:             make([][]float32, len(fields)),
		diffusionRadius:   opts.DiffusionRadius,
		paletteIndex:      opts.Palette,
		parallelThreshold: threshold,
		pool:              newWorkerPool(opts.Workers),
	}
	for i, f := range fields {
		e.bufs[i] = f.Buf()
		e.datas[i] = f.Data()
	}
	return e, nil
}

// Step advances the simulation by one iteration. The phases run in fixed
// order and each completes before the next starts.
func (e *Engine) Step() {
	if e.closed {
		panic("engine: Step called after Close")
	}

	e.perf.StartTick()

	e.perf.StartPhase(telemetry.PhaseCombine)
	e.combine()

	e.perf.StartPhase(telemetry.PhaseAgents)
	e.updateAgents()

	// Sequential: agents of one population may hit the same cell.
	e.perf.StartPhase(telemetry.PhaseDeposit)
	for i := range e.agents {
		a := &e.agents[i]
		e.fields[a.Population].Deposit(a.X, a.Y)
	}

	e.perf.StartPhase(telemetry.PhaseDiffuse)
	e.diffuse()

	e.perf.EndTick()
	e.iteration++
}

// combine runs phase 1, one goroutine per field.
func (e *Engine) combine() {
	var g errgroup.Group
	g.SetLimit(e.pool.numWorkers)
	for i := range e.bufs {
		g.Go(func() error {
			systems.CombineField(e.bufs[i], e.datas, e.table[i])
			return nil
		})
	}
	_ = g.Wait()
}

// diffuse runs phase 4. Fields share no memory, so they blur concurrently.
func (e *Engine) diffuse() {
	var g errgroup.Group
	g.SetLimit(e.pool.numWorkers)
	for _, f := range e.fields {
		g.Go(func() error {
			f.Diffuse(e.diffusionRadius)
			return nil
		})
	}
	_ = g.Wait()
}

// SetPopulationConfigs replaces every field's config. configs must hold at
// least one entry per field; extra entries are ignored. On error nothing is
// applied.
func (e *Engine) SetPopulationConfigs(configs []systems.PopulationConfig) error {
	if len(configs) < len(e.fields) {
		return fmt.Errorf("%w: got %d, need %d", ErrConfigCount, len(configs), len(e.fields))
	}
	for i, f := range e.fields {
		f.SetConfig(configs[i])
	}
	return nil
}

// PopulationConfigs returns a copy of every field's config.
func (e *Engine) PopulationConfigs() []systems.PopulationConfig {
	out := make([]systems.PopulationConfig, len(e.fields))
	for i, f := range e.fields {
		out[i] = f.Config()
	}
	return out
}

// SetPerf attaches a perf collector; nil detaches it.
func (e *Engine) SetPerf(p *telemetry.PerfCollector) { e.perf = p }

// Close stops the worker pool. The engine must not be stepped afterwards.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.pool.stopWorkers()
	e.closed = true
}

// LogConfigurations logs every population config and the attraction table.
func (e *Engine) LogConfigurations(logger *slog.Logger) {
	for i, f := range e.fields {
		logger.Info("population", "index", i, "config", f.Config())
	}
	logger.Info("attraction table", "table", e.table)
}

// Fields returns the trail fields in population order.
func (e *Engine) Fields() []*systems.TrailField { return e.fields }

// Field returns one population's trail field.
func (e *Engine) Field(i int) *systems.TrailField { return e.fields[i] }

// Agents returns the agent list. Callers must not modify it.
func (e *Engine) Agents() []systems.Agent { return e.agents }

// AttractionTable returns the coupling matrix.
func (e *Engine) AttractionTable() systems.AttractionTable { return e.table }

// Iteration returns the number of completed steps.
func (e *Engine) Iteration() int { return e.iteration }

// ParticleCount returns the realised agent count.
func (e *Engine) ParticleCount() int { return len(e.agents) }

// PaletteIndex returns the validated palette index.
func (e *Engine) PaletteIndex() int { return e.paletteIndex }

// Width returns the field width in cells.
func (e *Engine) Width() int { return e.width }

// Height returns the field height in cells.
func (e *Engine) Height() int { return e.height }
