package parallel

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/parallel-graph/pkg/logging"
	"github.com/dd0wney/parallel-graph/pkg/metrics"
)

var (
	// ErrTooManyWorkers is returned when the worker count exceeds MaxWorkers.
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")
	// ErrPoolClosed is returned when submitting to, or waiting on, a pool that was shut down.
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrPoolNotStarted is returned by Wait before Start.
	ErrPoolNotStarted = errors.New("worker pool not started")
	// ErrTaskPanic wraps a panic recovered from a task handler.
	ErrTaskPanic = errors.New("task panicked")
	// ErrNilHandler is returned when a pool is created without a handler.
	ErrNilHandler = errors.New("nil task handler")
)

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = 1 << 16

// Handler executes one task. A non-nil error is fatal to the whole run.
type Handler func(Task) error

// WorkerState is the lifecycle state of a single worker.
type WorkerState uint8

const (
	WorkerIdle WorkerState = iota
	WorkerRunning
	WorkerStopped
)

// String returns the string representation of a worker state
func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "IDLE"
	case WorkerRunning:
		return "RUNNING"
	case WorkerStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// PoolStats is a snapshot of pool bookkeeping.
type PoolStats struct {
	Workers    int
	Submitted  int
	Executed   int
	Dropped    int
	Queued     int
	PeakQueued int
	Busy       int
}

// PoolOption configures a WorkerPool.
type PoolOption func(*WorkerPool)

// WithPoolLogger sets the logger used for worker lifecycle events.
func WithPoolLogger(l logging.Logger) PoolOption {
	return func(wp *WorkerPool) {
		if l != nil {
			wp.logger = l
		}
	}
}

// WithPoolMetrics publishes queue depth, busy workers and task counts.
func WithPoolMetrics(r *metrics.Registry) PoolOption {
	return func(wp *WorkerPool) {
		wp.metrics = r
	}
}

// WorkerPool runs a fixed set of workers over a shared, unbounded task queue.
// Tasks may enqueue further tasks while running; the pool declares completion
// exactly when the queue is empty and no worker is executing a task, both
// observed under the same lock.
type WorkerPool struct {
	workers int
	handler Handler
	logger  logging.Logger
	metrics *metrics.Registry

	// mu guards everything below. It is also the exclusion domain offered to
	// handlers through Atomic.
	mu          sync.Mutex
	cond        *sync.Cond
	queue       *taskQueue
	states      []WorkerState
	busy        int
	submitted   int
	executed    int
	dropped     int
	peak        int
	started     bool
	closed      bool // Shutdown was called
	stopping    bool // workers must exit: closed or a task failed
	completed   bool
	interrupted bool // Shutdown arrived before completion
	fatal       error
	done        chan struct{}

	group        errgroup.Group
	startOnce    sync.Once
	shutdownOnce sync.Once
	shutdownErr  error
}

// NewWorkerPool creates a pool with the given number of workers. Workers are
// not started until Start is called. A non-positive count means one worker.
func NewWorkerPool(workers int, handler Handler, opts ...PoolOption) (*WorkerPool, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	wp := &WorkerPool{
		workers: workers,
		handler: handler,
		logger:  logging.NewNopLogger(),
		queue:   newTaskQueue(workers * 2),
		states:  make([]WorkerState, workers),
		done:    make(chan struct{}),
	}
	wp.cond = sync.NewCond(&wp.mu)

	for _, opt := range opts {
		opt(wp)
	}

	return wp, nil
}

// Workers returns the configured worker count.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Start spawns the workers. Calling it again has no effect.
func (wp *WorkerPool) Start() {
	wp.startOnce.Do(func() {
		wp.mu.Lock()
		if wp.closed {
			wp.mu.Unlock()
			return
		}
		wp.started = true
		wp.mu.Unlock()

		for i := 0; i < wp.workers; i++ {
			id := i
			wp.group.Go(func() error {
				return wp.worker(id)
			})
		}
		wp.logger.Debug("worker pool started", logging.Workers(wp.workers))
	})
}

// worker loops dequeue -> execute until the pool stops. It returns the task
// error only when that error was the first fatal one, so the errgroup reports
// exactly the error recorded in wp.fatal.
func (wp *WorkerPool) worker(id int) error {
	log := wp.logger.With(logging.WorkerID(id))
	log.Debug("worker started")

	for {
		task, ok := wp.dequeue(id)
		if !ok {
			log.Debug("worker stopped")
			return nil
		}

		err := wp.execute(task)
		if wp.finish(id, err) {
			log.Debug("task failed", logging.NodeIndex(task.Node), logging.Error(err))
			return err
		}
	}
}

// dequeue blocks until a task is available or the pool is stopping. The busy
// count is raised before the lock is released.
func (wp *WorkerPool) dequeue(id int) (Task, bool) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	for wp.queue.len() == 0 && !wp.stopping {
		wp.states[id] = WorkerIdle
		wp.cond.Wait()
	}
	if wp.stopping {
		wp.states[id] = WorkerStopped
		return Task{}, false
	}

	task, _ := wp.queue.pop()
	wp.busy++
	wp.executed++
	wp.states[id] = WorkerRunning
	if wp.metrics != nil {
		wp.metrics.RecordDequeue(wp.queue.len(), wp.busy)
	}
	return task, true
}

// execute runs the handler, converting a panic into ErrTaskPanic.
func (wp *WorkerPool) execute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: node %d: %v", ErrTaskPanic, task.Node, r)
			if wp.metrics != nil {
				wp.metrics.RecordTaskFailure(metrics.FailurePanic)
			}
		}
	}()

	if err := wp.handler(task); err != nil {
		if wp.metrics != nil {
			wp.metrics.RecordTaskFailure(metrics.FailureError)
		}
		return err
	}
	return nil
}

// finish lowers the busy count and applies the termination rule. It reports
// whether err became the pool's fatal error.
func (wp *WorkerPool) finish(id int, err error) bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	wp.busy--
	wp.states[id] = WorkerIdle
	if wp.metrics != nil {
		wp.metrics.RecordTaskDone(wp.busy)
	}

	first := false
	if err != nil && wp.fatal == nil {
		wp.fatal = err
		wp.stopping = true
		wp.dropped += wp.queue.drop()
		wp.cond.Broadcast()
		first = true
	}

	if wp.queue.len() == 0 && wp.busy == 0 {
		wp.completeLocked()
	}
	return first
}

func (wp *WorkerPool) completeLocked() {
	if wp.completed {
		return
	}
	wp.completed = true
	close(wp.done)
}

func (wp *WorkerPool) pushLocked(t Task) {
	if wp.stopping || wp.completed {
		wp.dropped++
		return
	}

	wp.queue.push(t)
	wp.submitted++
	if n := wp.queue.len(); n > wp.peak {
		wp.peak = n
	}
	if wp.metrics != nil {
		wp.metrics.RecordSubmit(wp.queue.len())
	}
	wp.cond.Signal()
}

// Submit enqueues a task. It never blocks on capacity.
func (wp *WorkerPool) Submit(t Task) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.stopping || wp.completed {
		return ErrPoolClosed
	}
	wp.pushLocked(t)
	return nil
}

// Atomic runs fn while holding the pool lock, the same lock that guards the
// queue and the busy count. fn must not call Submit, Atomic, Wait or Shutdown.
func (wp *WorkerPool) Atomic(fn func(q *LockedQueue) error) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return fn(&LockedQueue{pool: wp})
}

// Wait blocks until the termination rule holds and returns the first fatal
// task error, if any. It may be called more than once.
func (wp *WorkerPool) Wait() error {
	wp.mu.Lock()
	if !wp.started && !wp.closed {
		wp.mu.Unlock()
		return ErrPoolNotStarted
	}
	if wp.queue.len() == 0 && wp.busy == 0 {
		wp.completeLocked()
	}
	wp.mu.Unlock()

	<-wp.done

	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.fatal != nil {
		return wp.fatal
	}
	if wp.interrupted {
		return ErrPoolClosed
	}
	return nil
}

// Shutdown wakes and joins every worker. Tasks still queued are dropped.
// It is safe to call more than once and returns the fatal error, if any.
func (wp *WorkerPool) Shutdown() error {
	wp.shutdownOnce.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		wp.stopping = true
		wp.dropped += wp.queue.drop()
		if !wp.completed && wp.busy > 0 {
			wp.interrupted = true
		}
		wp.cond.Broadcast()
		wp.mu.Unlock()

		err := wp.group.Wait()

		wp.mu.Lock()
		if !wp.completed {
			wp.interrupted = wp.interrupted || wp.submitted > wp.executed
			wp.completeLocked()
		}
		for i := range wp.states {
			wp.states[i] = WorkerStopped
		}
		if err == nil {
			err = wp.fatal
		}
		wp.mu.Unlock()

		wp.shutdownErr = err
		wp.logger.Debug("worker pool shut down", logging.Workers(wp.workers))
	})
	return wp.shutdownErr
}

// WorkerStates returns a snapshot of every worker's lifecycle state.
func (wp *WorkerPool) WorkerStates() []WorkerState {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return append([]WorkerState(nil), wp.states...)
}

// Stats returns a snapshot of the pool counters.
func (wp *WorkerPool) Stats() PoolStats {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return PoolStats{
		Workers:    wp.workers,
		Submitted:  wp.submitted,
		Executed:   wp.executed,
		Dropped:    wp.dropped,
		Queued:     wp.queue.len(),
		PeakQueued: wp.peak,
		Busy:       wp.busy,
	}
}
