package sim

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/pthm-cable/drift/telemetry"
)

// defaultParallelThreshold is the minimum particle count to use the
// worker pool. Below this, single-threaded is faster due to goroutine
// overhead.
const defaultParallelThreshold = 64

// defaultMaxParticles caps a single dispatch. Requests above the cap
// fail with ErrDispatch; there is no fallback to a partial run.
const defaultMaxParticles = 1 << 20

// Params configures a simulation run. The zero value is invalid; start
// from DefaultParams for the reference scenario.
type Params struct {
	Iterations int
	Particles  int
	GridSize   int
	Radius     float32
	Seed       int64
	Scale      int

	// Start is the shared initial position. Starts, when non-empty,
	// overrides it with one position per particle and must have length
	// Particles.
	Start  Start
	Starts []Start

	// Workers is the worker pool size (0 = GOMAXPROCS).
	Workers int
	// ParallelThreshold is the minimum particle count for the pool
	// (0 = default).
	ParallelThreshold int
	// MaxParticles caps the dispatch size (0 = default).
	MaxParticles int

	// CheckpointInterval, when positive, splits the run into kernel
	// segments of that many iterations with a reduction after each,
	// producing intermediate grids. Zero runs a single segment. The
	// final grid is identical for any interval: per-particle random
	// sequences are fixed and counters only accumulate.
	CheckpointInterval int
}

// DefaultParams returns the reference scenario: 20 particles on a
// 21 x 21 grid, radius 0.5, 50 iterations, all starting at (10, 10).
func DefaultParams() Params {
	return Params{
		Iterations: 50,
		Particles:  20,
		GridSize:   21,
		Radius:     0.5,
		Seed:       17,
		Scale:      DefaultScale,
		Start:      Start{X: 10.0, Y: 10.0},
	}
}

// Validate fails fast on any non-positive dimension, before anything
// is allocated or dispatched.
func (p Params) Validate() error {
	if p.Iterations <= 0 {
		return fmt.Errorf("%w: iterations=%d", ErrConfiguration, p.Iterations)
	}
	if p.Particles <= 0 {
		return fmt.Errorf("%w: particles=%d", ErrConfiguration, p.Particles)
	}
	if p.GridSize <= 0 {
		return fmt.Errorf("%w: grid_size=%d", ErrConfiguration, p.GridSize)
	}
	if p.Radius <= 0 {
		return fmt.Errorf("%w: radius=%v", ErrConfiguration, p.Radius)
	}
	if p.Scale <= 0 {
		return fmt.Errorf("%w: scale=%d", ErrConfiguration, p.Scale)
	}
	if len(p.Starts) > 0 && len(p.Starts) != p.Particles {
		return fmt.Errorf("%w: %d start positions for %d particles",
			ErrConfiguration, len(p.Starts), p.Particles)
	}
	return nil
}

// Checkpoint is an intermediate reduction taken after a kernel
// segment.
type Checkpoint struct {
	Iteration int
	Events    uint64
	Grid      *Grid
}

// Result is the outcome of a completed run.
type Result struct {
	Grid        *Grid
	Elapsed     time.Duration
	Events      uint64
	Checkpoints []Checkpoint
}

// ElapsedMillis returns the dispatch-to-completion wall time in
// milliseconds.
func (r *Result) ElapsedMillis() int64 {
	return r.Elapsed.Milliseconds()
}

// workChunk is a range of particle indices and the iteration window a
// worker processes for them.
type workChunk struct {
	start, end         int
	iterStart, iterEnd int
}

// Simulator owns one simulation run: the displacement table, the
// particle population, the occupancy map, and the worker pool that
// dispatches the motion kernel. A Simulator is single-use; occupancy
// counters only accumulate, so a second Run would double-count.
type Simulator struct {
	params    Params
	workers   int
	threshold int

	pop   *Population
	table *DisplacementTable
	occ   *OccupancyMap
	posX  []float32
	posY  []float32

	perf *telemetry.PerfCollector
	ran  bool

	// Worker pool channels
	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// New builds a simulator for the given parameters and generates its
// displacement table from params.Seed.
func New(params Params) (*Simulator, error) {
	s, err := newSimulator(params)
	if err != nil {
		return nil, err
	}
	s.perf.StartRun()
	s.perf.StartPhase(telemetry.PhaseGenerate)
	table, err := NewDisplacementTable(params.Particles, params.Iterations, params.Scale, params.Seed)
	if err != nil {
		return nil, err
	}
	s.table = table
	return s, nil
}

// NewWithTable builds a simulator around an externally constructed
// displacement table, for callers that need exact sequences.
func NewWithTable(params Params, table *DisplacementTable) (*Simulator, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil displacement table", ErrConfiguration)
	}
	if table.Particles() != params.Particles || table.Iterations() != params.Iterations {
		return nil, fmt.Errorf("%w: table is %d x %d, params want %d x %d",
			ErrConfiguration, table.Particles(), table.Iterations(),
			params.Particles, params.Iterations)
	}
	s, err := newSimulator(params)
	if err != nil {
		return nil, err
	}
	s.perf.StartRun()
	s.table = table
	return s, nil
}

func newSimulator(params Params) (*Simulator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	maxParticles := params.MaxParticles
	if maxParticles <= 0 {
		maxParticles = defaultMaxParticles
	}
	if params.Particles > maxParticles {
		return nil, fmt.Errorf("%w: %d particles exceeds cap of %d",
			ErrDispatch, params.Particles, maxParticles)
	}

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	threshold := params.ParallelThreshold
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}

	occ, err := NewOccupancyMap(params.Particles, params.GridSize)
	if err != nil {
		return nil, err
	}

	var pop *Population
	if len(params.Starts) > 0 {
		pop, err = NewPopulationAt(params.Starts)
	} else {
		pop, err = NewPopulation(params.Particles, params.Start)
	}
	if err != nil {
		return nil, err
	}

	return &Simulator{
		params:    params,
		workers:   workers,
		threshold: threshold,
		pop:       pop,
		occ:       occ,
		posX:      make([]float32, params.Particles),
		posY:      make([]float32, params.Particles),
		perf:      telemetry.NewPerfCollector(16),
	}, nil
}

// Table returns the displacement table consumed by the run.
func (s *Simulator) Table() *DisplacementTable { return s.table }

// Population returns the particle population.
func (s *Simulator) Population() *Population { return s.pop }

// Occupancy returns the per-particle counter map.
func (s *Simulator) Occupancy() *OccupancyMap { return s.occ }

// Perf returns the phase-timing collector for this run.
func (s *Simulator) Perf() *telemetry.PerfCollector { return s.perf }

// Run executes the full pipeline: snapshot positions, dispatch the
// motion kernel across all particles, reduce the occupancy map, and
// apply final positions back to the population. Elapsed covers the
// dispatch-to-completion window.
//
// Cancellation is honored only at segment barriers; an aborted run
// returns ErrRunAborted and yields no grid, since the occupancy map
// may cover particles unevenly across segments.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	if s.ran {
		return nil, fmt.Errorf("%w: simulator already ran", ErrConfiguration)
	}
	s.ran = true
	defer s.stopWorkers()

	s.perf.StartPhase(telemetry.PhaseSnapshot)
	s.pop.Snapshot(s.posX, s.posY)

	interval := s.params.CheckpointInterval
	if interval <= 0 || interval > s.params.Iterations {
		interval = s.params.Iterations
	}

	var checkpoints []Checkpoint
	var grid *Grid

	start := time.Now()
	for t0 := 0; t0 < s.params.Iterations; t0 += interval {
		t1 := t0 + interval
		if t1 > s.params.Iterations {
			t1 = s.params.Iterations
		}

		if err := ctx.Err(); err != nil {
			s.perf.EndRun()
			return nil, fmt.Errorf("%w: %w", ErrRunAborted, err)
		}

		s.perf.StartPhase(telemetry.PhaseKernel)
		s.dispatch(t0, t1)

		// Kernel barrier reached: every particle has finished [t0, t1).
		if err := ctx.Err(); err != nil {
			s.perf.EndRun()
			return nil, fmt.Errorf("%w: %w", ErrRunAborted, err)
		}

		s.perf.StartPhase(telemetry.PhaseReduce)
		g, err := s.occ.Reduce()
		if err != nil {
			s.perf.EndRun()
			return nil, err
		}
		grid = g
		if s.params.CheckpointInterval > 0 {
			checkpoints = append(checkpoints, Checkpoint{
				Iteration: t1,
				Events:    g.Total(),
				Grid:      g,
			})
		}
	}
	elapsed := time.Since(start)

	s.perf.StartPhase(telemetry.PhaseApply)
	s.pop.Apply(s.posX, s.posY)
	s.perf.EndRun()

	return &Result{
		Grid:        grid,
		Elapsed:     elapsed,
		Events:      grid.Total(),
		Checkpoints: checkpoints,
	}, nil
}

// dispatch runs the kernel for every particle over [iterStart,
// iterEnd), blocking until all of them complete. Small populations run
// on the calling goroutine; larger ones are chunked across the pool.
func (s *Simulator) dispatch(iterStart, iterEnd int) {
	n := s.params.Particles
	if n < s.threshold || s.workers == 1 {
		s.computeChunk(workChunk{start: 0, end: n, iterStart: iterStart, iterEnd: iterEnd})
		return
	}

	if !s.running {
		s.startWorkers()
	}

	chunkSize := (n + s.workers - 1) / s.workers
	dispatched := 0
	for w := 0; w < s.workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		s.workChan <- workChunk{start: start, end: end, iterStart: iterStart, iterEnd: iterEnd}
		dispatched++
	}

	// Barrier: wait for all chunks before anyone reads the map.
	for i := 0; i < dispatched; i++ {
		<-s.doneChan
	}
}

// startWorkers launches the persistent worker goroutines.
func (s *Simulator) startWorkers() {
	if s.running {
		return
	}
	s.workChan = make(chan workChunk, s.workers)
	s.doneChan = make(chan struct{}, s.workers)
	s.stopChan = make(chan struct{})
	s.running = true

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (s *Simulator) stopWorkers() {
	if !s.running {
		return
	}
	close(s.stopChan)
	s.wg.Wait()
	close(s.workChan)
	close(s.doneChan)
	s.running = false
}

// worker processes chunks until stopped.
func (s *Simulator) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopChan:
			return
		case chunk, ok := <-s.workChan:
			if !ok {
				return
			}
			s.computeChunk(chunk)
			s.doneChan <- struct{}{}
		}
	}
}

// computeChunk runs the motion kernel for a range of particles. Each
// particle writes only its own plane and position slot, so chunks
// never contend.
func (s *Simulator) computeChunk(chunk workChunk) {
	for i := chunk.start; i < chunk.end; i++ {
		simulateParticle(i, s.posX, s.posY, s.table,
			chunk.iterStart, chunk.iterEnd,
			s.params.GridSize, s.params.Radius, s.occ.Plane(i))
	}
}
