package engine

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/palette"
	"github.com/pthm-cable/physarum/systems"
	"github.com/pthm-cable/physarum/telemetry"
)

func testConfig(t testing.TB) *config.Config {
	t.Helper()
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

func testOptions() Options {
	return Options{
		Width:           64,
		Height:          64,
		Particles:       100,
		Populations:     2,
		DiffusionRadius: 1,
	}
}

func newTestEngine(t testing.TB, opts Options, seed uint64) *Engine {
	t.Helper()
	e, err := New(opts, testConfig(t), rand.New(rand.NewPCG(seed, 0)))
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEngineRuns(t *testing.T) {
	e := newTestEngine(t, testOptions(), 42)

	if e.ParticleCount() != 100 {
		t.Fatalf("ParticleCount = %d, want 100", e.ParticleCount())
	}
	if len(e.Fields()) != 2 || e.AttractionTable().Size() != 2 {
		t.Fatalf("expected 2 fields and a 2x2 table")
	}

	for i := 0; i < 10; i++ {
		e.Step()
	}
	if e.Iteration() != 10 {
		t.Errorf("Iteration = %d, want 10", e.Iteration())
	}

	for p, f := range e.Fields() {
		for i, v := range f.Data() {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("population %d cell %d is not finite: %v", p, i, v)
			}
		}
	}
	for _, a := range e.Agents() {
		if a.X < 0 || a.X >= 64 || a.Y < 0 || a.Y >= 64 {
			t.Fatalf("agent %d left the field: (%v, %v)", a.ID, a.X, a.Y)
		}
	}
}

func TestParticleCountRoundsUp(t *testing.T) {
	tests := []struct {
		particles, populations, want int
	}{
		{100, 2, 100},
		{101, 2, 102},
		{10, 3, 12},
		{0, 3, 0},
		{1, 4, 4},
	}

	for _, tt := range tests {
		opts := testOptions()
		opts.Particles = tt.particles
		opts.Populations = tt.populations
		e := newTestEngine(t, opts, 1)
		if got := e.ParticleCount(); got != tt.want {
			t.Errorf("particles=%d populations=%d: count = %d, want %d",
				tt.particles, tt.populations, got, tt.want)
		}
	}
}

func TestAgentsAssignedInBlocks(t *testing.T) {
	opts := testOptions()
	opts.Particles = 9
	opts.Populations = 3
	e := newTestEngine(t, opts, 7)

	want := []int{0, 0, 0, 1, 1, 1, 2, 2, 2}
	for i, a := range e.Agents() {
		if a.Population != want[i] {
			t.Errorf("agent %d population = %d, want %d", i, a.Population, want[i])
		}
		if a.ID != uint64(i) {
			t.Errorf("agent %d ID = %d", i, a.ID)
		}
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		want   error
	}{
		{"width not power of two", func(o *Options) { o.Width = 100 }, systems.ErrNotPowerOfTwo},
		{"height not power of two", func(o *Options) { o.Height = 48 }, systems.ErrNotPowerOfTwo},
		{"no populations", func(o *Options) { o.Populations = 0 }, ErrInvalidOptions},
		{"negative particles", func(o *Options) { o.Particles = -1 }, ErrInvalidOptions},
		{"negative radius", func(o *Options) { o.DiffusionRadius = -1 }, ErrInvalidOptions},
		{"unknown palette", func(o *Options) { o.Palette = palette.Count() }, palette.ErrUnknownPalette},
		{"negative palette", func(o *Options) { o.Palette = -1 }, palette.ErrUnknownPalette},
	}

	cfg := testConfig(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.modify(&opts)
			e, err := New(opts, cfg, rand.New(rand.NewPCG(1, 0)))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if e != nil {
				t.Error("expected nil engine on error")
			}
		})
	}
}

func TestSameSeedSameResult(t *testing.T) {
	a := newTestEngine(t, testOptions(), 99)
	b := newTestEngine(t, testOptions(), 99)
	for i := 0; i < 5; i++ {
		a.Step()
		b.Step()
	}
	assertEqualState(t, a, b)
}

func TestWorkerCountDoesNotChangeResult(t *testing.T) {
	opts := testOptions()
	opts.Particles = 500
	opts.Populations = 3

	opts.Workers = 1
	serial := newTestEngine(t, opts, 5)

	opts.Workers = 4
	opts.ParallelThreshold = 1
	parallel := newTestEngine(t, opts, 5)

	for i := 0; i < 8; i++ {
		serial.Step()
		parallel.Step()
	}
	if !parallel.pool.running {
		t.Error("expected the worker pool to be started")
	}
	assertEqualState(t, serial, parallel)
}

func assertEqualState(t *testing.T, a, b *Engine) {
	t.Helper()
	for i := range a.agents {
		if a.agents[i] != b.agents[i] {
			t.Fatalf("agent %d differs: %+v vs %+v", i, a.agents[i], b.agents[i])
		}
	}
	for p := range a.fields {
		da, db := a.fields[p].Data(), b.fields[p].Data()
		for i := range da {
			if da[i] != db[i] {
				t.Fatalf("population %d cell %d differs: %v vs %v", p, i, da[i], db[i])
			}
		}
	}
}

func TestSinglePopulationCombineIsIdentity(t *testing.T) {
	cfg := testConfig(t)
	cfg.Attraction.SelfMean = 1
	cfg.Attraction.SelfStd = 0

	opts := testOptions()
	opts.Populations = 1
	e, err := New(opts, cfg, rand.New(rand.NewPCG(3, 0)))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	e.combine()
	f := e.Field(0)
	data, buf := f.Data(), f.Buf()
	for i := range data {
		if buf[i] != data[i] {
			t.Fatalf("cell %d: buf = %v, data = %v", i, buf[i], data[i])
		}
	}
}

func TestSetPopulationConfigs(t *testing.T) {
	e := newTestEngine(t, testOptions(), 11)
	before := e.PopulationConfigs()

	short := []systems.PopulationConfig{{DepositionAmount: 1, DecayFactor: 1}}
	if err := e.SetPopulationConfigs(short); !errors.Is(err, ErrConfigCount) {
		t.Fatalf("err = %v, want ErrConfigCount", err)
	}
	for i, c := range e.PopulationConfigs() {
		if c != before[i] {
			t.Errorf("population %d changed after a rejected update", i)
		}
	}

	next := []systems.PopulationConfig{
		{DepositionAmount: 1, DecayFactor: 0.5, StepDistance: 1},
		{DepositionAmount: 2, DecayFactor: 0.5, StepDistance: 1},
		{DepositionAmount: 3, DecayFactor: 0.5, StepDistance: 1},
	}
	if err := e.SetPopulationConfigs(next); err != nil {
		t.Fatal(err)
	}
	got := e.PopulationConfigs()
	if len(got) != 2 || got[0] != next[0] || got[1] != next[1] {
		t.Errorf("configs = %+v, want first two of %+v", got, next)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	opts := testOptions()
	opts.Workers = 2
	opts.ParallelThreshold = 1
	e, err := New(opts, testConfig(t), rand.New(rand.NewPCG(1, 0)))
	if err != nil {
		t.Fatal(err)
	}
	e.Step()
	e.Close()
	e.Close()

	defer func() {
		if recover() == nil {
			t.Error("expected Step after Close to panic")
		}
	}()
	e.Step()
}

func TestStepRecordsPerf(t *testing.T) {
	e := newTestEngine(t, testOptions(), 2)
	perf := telemetry.NewPerfCollector(4)
	e.SetPerf(perf)
	for i := 0; i < 3; i++ {
		e.Step()
	}
	stats := perf.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Errorf("expected a positive average tick, got %v", stats.AvgTickDuration)
	}
	if _, ok := stats.PhaseAvg[telemetry.PhaseDiffuse]; !ok {
		t.Error("expected the diffuse phase to be timed")
	}
}

func BenchmarkStep(b *testing.B) {
	opts := Options{
		Width:           256,
		Height:          256,
		Particles:       100_000,
		Populations:     3,
		DiffusionRadius: 1,
	}
	e := newTestEngine(b, opts, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Step()
	}
}
