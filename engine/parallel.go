package engine

import (
	"runtime"
	"sync"
)

// defaultParallelThreshold is the minimum agent count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const defaultParallelThreshold = 1024

// workChunk represents a range of agents for a worker to process.
type workChunk struct {
	start, end int
}

// workerPool runs the agent update phase across persistent goroutines.
// Every chunk writes only the agent slots in its own range.
type workerPool struct {
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newWorkerPool(numWorkers int) *workerPool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &workerPool{numWorkers: numWorkers}
}

// startWorkers launches persistent worker goroutines.
func (p *workerPool) startWorkers(e *Engine) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(e)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *workerPool) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker(e *Engine) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			e.updateChunk(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// updateAgents runs phase 2: every agent senses its field's combined signal,
// steers and moves.
func (e *Engine) updateAgents() {
	n := len(e.agents)
	if n == 0 {
		return
	}

	if n < e.parallelThreshold || e.pool.numWorkers == 1 {
		e.updateChunk(0, n)
		return
	}
	e.computeParallel(n)
}

// computeParallel dispatches work to the worker pool and waits for every
// chunk, which is the barrier before the deposit phase.
func (e *Engine) computeParallel(n int) {
	p := e.pool
	if !p.running {
		p.startWorkers(e)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}

// updateChunk processes a range of agents. Fields are read-only here.
func (e *Engine) updateChunk(i0, i1 int) {
	for i := i0; i < i1; i++ {
		a := &e.agents[i]
		a.Update(e.fields[a.Population])
	}
}
