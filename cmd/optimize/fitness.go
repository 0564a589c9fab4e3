package main

import (
	"math"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/engine"
	"github.com/pthm-cable/physarum/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	ticks      int
	seeds      []uint64
	baseConfig *config.Config
	opts       engine.Options

	mu        sync.Mutex
	lastScore float64 // structure score from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Each run uses opts with a
// single worker, since seeds already run in parallel.
func NewFitnessEvaluator(params *ParamVector, ticks int, seeds []uint64, baseCfg *config.Config, opts engine.Options) *FitnessEvaluator {
	opts.Populations = params.Populations
	opts.Workers = 1
	return &FitnessEvaluator{
		params:     params,
		ticks:      ticks,
		seeds:      seeds,
		baseConfig: baseCfg,
		opts:       opts,
	}
}

// LastScore returns the structure score from the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastScore
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negative structure score averaged over seeds. A run that
// fails to construct scores +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	scores := make([]float64, len(fe.seeds))

	var g errgroup.Group
	for i, seed := range fe.seeds {
		g.Go(func() error {
			s, err := fe.runSimulation(x, seed)
			scores[i] = s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return math.Inf(1)
	}

	var total float64
	for _, s := range scores {
		total += s
	}
	score := total / float64(len(scores))

	fe.mu.Lock()
	fe.lastScore = score
	fe.mu.Unlock()

	return -score
}

// runSimulation runs one seed to completion and scores the final fields.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed uint64) (float64, error) {
	rng := rand.New(rand.NewPCG(seed, 0))
	e, err := engine.New(fe.opts, fe.baseConfig, rng)
	if err != nil {
		return 0, err
	}
	defer e.Close()

	if err := e.SetPopulationConfigs(fe.params.ToPopulationConfigs(x)); err != nil {
		return 0, err
	}
	for i := 0; i < fe.ticks; i++ {
		e.Step()
	}

	stats := make([]telemetry.FieldStats, len(e.Fields()))
	for i, f := range e.Fields() {
		stats[i] = telemetry.ComputeFieldStats(e.Iteration(), i, f, nil)
	}
	return structureScore(stats), nil
}

// structureScore rewards trail networks: fields whose mass is concentrated
// in thin filaments have a high coefficient of variation. The weakest
// population bounds the score so no population may die out.
func structureScore(stats []telemetry.FieldStats) float64 {
	if len(stats) == 0 {
		return 0
	}
	var sum float64
	weakest := math.Inf(1)
	for _, s := range stats {
		var cv float64
		if s.Mean > 0 {
			cv = s.Std / s.Mean
		}
		sum += cv
		weakest = min(weakest, cv)
	}
	mean := sum / float64(len(stats))
	return 0.5*mean + 0.5*weakest
}
