// Package parallel implements a worker-pool driven graph traversal that visits
// every node reachable from a root exactly once and sums the node values.
//
// Workers create new tasks while running, one per unvisited neighbor, so the
// total amount of work is unknown up front. The pool therefore decides when
// the run is over by observing an empty queue and zero busy workers under a
// single lock. The same lock guards the per-node visit states, which is what
// makes the NotVisited -> Processing claim exclusive.
package parallel

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/parallel-graph/pkg/graph"
	"github.com/dd0wney/parallel-graph/pkg/logging"
	"github.com/dd0wney/parallel-graph/pkg/metrics"
)

// DefaultWorkers is the worker count used when none is configured.
const DefaultWorkers = 4

// ErrNilGraph is returned when a traverser is created without a graph.
var ErrNilGraph = errors.New("nil graph")

// Result describes a completed traversal.
type Result struct {
	RunID          string
	Root           int
	Sum            int64
	NodesVisited   int
	TasksSubmitted int
	TasksDiscarded int
	PeakQueued     int
	Workers        int
	Duration       time.Duration
}

// Accumulator is the shared running total. It has its own lock, separate
// from the pool's, since exactly-once folding is already guaranteed by the
// claim protocol.
type Accumulator struct {
	mu    sync.Mutex
	total int64
}

// Add folds v into the total.
func (a *Accumulator) Add(v int64) {
	a.mu.Lock()
	a.total += v
	a.mu.Unlock()
}

// Load returns the current total.
func (a *Accumulator) Load() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// Reset sets the total back to zero.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	a.total = 0
	a.mu.Unlock()
}

// Option configures a Traverser.
type Option func(*Traverser)

// WithWorkers sets the pool size. Non-positive values select DefaultWorkers.
func WithWorkers(n int) Option {
	return func(t *Traverser) {
		if n <= 0 {
			n = DefaultWorkers
		}
		t.numWorkers = n
	}
}

// WithLogger sets the logger for run and worker lifecycle events. Without it
// the traverser logs to logging.DefaultLogger.
func WithLogger(l logging.Logger) Option {
	return func(t *Traverser) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithMetrics publishes run and pool metrics to r.
func WithMetrics(r *metrics.Registry) Option {
	return func(t *Traverser) {
		t.metrics = r
	}
}

// Traverser runs parallel traversals over one graph. Runs are serialized
// because they share the graph's visit-state array.
type Traverser struct {
	graph      *graph.Graph
	numWorkers int
	logger     logging.Logger
	metrics    *metrics.Registry

	mu sync.Mutex
}

// NewTraverser creates a traverser for g.
func NewTraverser(g *graph.Graph, opts ...Option) (*Traverser, error) {
	if g == nil {
		return nil, ErrNilGraph
	}

	t := &Traverser{
		graph:      g,
		numWorkers: DefaultWorkers,
		logger:     logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.numWorkers > MaxWorkers {
		return nil, ErrTooManyWorkers
	}
	return t, nil
}

// Workers returns the configured pool size.
func (t *Traverser) Workers() int {
	return t.numWorkers
}

// traversal is the context of a single run: it owns the pool and the
// accumulator and borrows the graph.
type traversal struct {
	graph     *graph.Graph
	pool      *WorkerPool
	acc       Accumulator
	visited   atomic.Int64
	discarded atomic.Int64
}

// Run visits every node reachable from root and returns the sum of their
// values. On error no partial sum is reported.
func (t *Traverser) Run(root int) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	runID := uuid.NewString()
	log := t.logger.With(logging.RunID(runID))
	timer := logging.StartTimer(log, "traversal", logging.NodeIndex(root), logging.Workers(t.numWorkers))

	res, err := t.run(root, log)
	if err != nil {
		elapsed := timer.EndError(err)
		if t.metrics != nil {
			t.metrics.RecordRun(metrics.StatusError, elapsed, 0, 0, 0)
		}
		return Result{}, err
	}

	res.RunID = runID
	res.Duration = timer.End(logging.Int64("sum", res.Sum), logging.Count(res.NodesVisited))
	if t.metrics != nil {
		t.metrics.RecordRun(metrics.StatusSuccess, res.Duration, res.NodesVisited, res.TasksDiscarded, res.Sum)
	}
	return res, nil
}

func (t *Traverser) run(root int, log logging.Logger) (Result, error) {
	if _, err := t.graph.Value(root); err != nil {
		return Result{}, err
	}
	t.graph.ResetVisits()

	tr := &traversal{graph: t.graph}
	pool, err := NewWorkerPool(t.numWorkers, tr.process,
		WithPoolLogger(log.With(logging.Component("pool"))),
		WithPoolMetrics(t.metrics),
	)
	if err != nil {
		return Result{}, err
	}
	tr.pool = pool

	pool.Start()
	if err := pool.Submit(Task{Node: root}); err != nil {
		// No task has run, so there is no fatal error to collect.
		_ = pool.Shutdown()
		return Result{}, err
	}

	waitErr := pool.Wait()
	shutdownErr := pool.Shutdown()
	if waitErr != nil {
		return Result{}, waitErr
	}
	if shutdownErr != nil {
		return Result{}, shutdownErr
	}

	stats := pool.Stats()
	return Result{
		Root:           root,
		Sum:            tr.acc.Load(),
		NodesVisited:   int(tr.visited.Load()),
		TasksSubmitted: stats.Submitted,
		TasksDiscarded: int(tr.discarded.Load()),
		PeakQueued:     stats.PeakQueued,
		Workers:        stats.Workers,
	}, nil
}

// process is the per-task claim protocol:
//  1. claim the node under the pool lock, or drop the task if already claimed;
//  2. fold the value outside the pool lock;
//  3. under the pool lock, queue every still-unvisited neighbor, then mark Done.
func (tr *traversal) process(task Task) error {
	idx := task.Node

	var claimed bool
	err := tr.pool.Atomic(func(*LockedQueue) error {
		var err error
		claimed, err = tr.graph.Claim(idx)
		return err
	})
	if err != nil {
		return err
	}
	if !claimed {
		tr.discarded.Add(1)
		return nil
	}

	value, err := tr.graph.Value(idx)
	if err != nil {
		return err
	}
	tr.acc.Add(value)
	tr.visited.Add(1)

	neighbors, err := tr.graph.Neighbors(idx)
	if err != nil {
		return err
	}

	return tr.pool.Atomic(func(q *LockedQueue) error {
		for _, nb := range neighbors {
			state, err := tr.graph.VisitState(nb)
			if err != nil {
				return err
			}
			if state == graph.NotVisited {
				q.Push(Task{Node: nb})
			}
		}
		return tr.graph.MarkDone(idx)
	})
}
