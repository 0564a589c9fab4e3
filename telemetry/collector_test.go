package telemetry

import (
	"testing"

	"github.com/pthm-cable/physarum/systems"
)

type fakeSource struct {
	iteration int
	fields    []*systems.TrailField
	agents    []systems.Agent
}

func (s *fakeSource) Iteration() int                { return s.iteration }
func (s *fakeSource) Fields() []*systems.TrailField { return s.fields }
func (s *fakeSource) Agents() []systems.Agent       { return s.agents }

func newFakeSource(t *testing.T) *fakeSource {
	t.Helper()
	src := &fakeSource{}
	for i := 0; i < 2; i++ {
		f, err := systems.NewTrailField(8, 8, systems.PopulationConfig{DepositionAmount: 1, DecayFactor: 1}, nil)
		if err != nil {
			t.Fatal(err)
		}
		src.fields = append(src.fields, f)
	}
	src.agents = []systems.Agent{
		{Population: 0, Angle: 0.5},
		{Population: 0, Angle: 0.5},
		{Population: 1, Angle: 2},
	}
	src.fields[1].Deposit(1, 1)
	return src
}

func TestCollectorWindow(t *testing.T) {
	src := newFakeSource(t)
	c := NewCollector(10, nil, nil, false)

	src.iteration = 5
	stats, err := c.Observe(src)
	if err != nil || stats != nil {
		t.Fatalf("expected no flush before window, got %v, %v", stats, err)
	}

	src.iteration = 10
	stats, err = c.Observe(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected stats for 2 populations, got %d", len(stats))
	}
	if stats[0].Agents != 2 || stats[1].Agents != 1 {
		t.Errorf("agent counts = %d/%d, want 2/1", stats[0].Agents, stats[1].Agents)
	}
	if stats[1].Mass != 1 || stats[0].Mass != 0 {
		t.Errorf("masses = %v/%v, want 0/1", stats[0].Mass, stats[1].Mass)
	}
	if stats[0].HeadingCoherence < 0.999 {
		t.Errorf("expected aligned headings for population 0, got %v", stats[0].HeadingCoherence)
	}

	src.iteration = 15
	if stats, _ := c.Observe(src); stats != nil {
		t.Error("expected no flush mid-window")
	}
	src.iteration = 20
	if stats, _ := c.Observe(src); stats == nil {
		t.Error("expected flush at next window boundary")
	}
}

func TestCollectorWritesOutput(t *testing.T) {
	om, err := NewOutputManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	perf := NewPerfCollector(4)
	perf.StartTick()
	perf.StartPhase(PhaseCombine)
	perf.EndTick()

	src := newFakeSource(t)
	src.iteration = 1
	c := NewCollector(1, om, perf, false)
	if _, err := c.Flush(src); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !om.statsHeaderWritten || !om.perfHeaderWritten {
		t.Error("expected both CSV files to receive a header")
	}
}

func TestCollectorFlushPending(t *testing.T) {
	src := newFakeSource(t)
	c := NewCollector(10, nil, nil, false)

	if stats, _ := c.FlushPending(src); stats != nil {
		t.Error("expected nothing pending before any iteration")
	}

	src.iteration = 13
	if stats, _ := c.Observe(src); stats == nil {
		t.Fatal("expected flush at iteration 13")
	}
	if stats, _ := c.FlushPending(src); stats != nil {
		t.Error("expected nothing pending right after a flush")
	}

	src.iteration = 17
	if stats, _ := c.FlushPending(src); len(stats) != 2 {
		t.Errorf("expected partial window flush, got %d stats", len(stats))
	}
}
