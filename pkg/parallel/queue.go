package parallel

// Task is a unit of work referencing exactly one graph node.
type Task struct {
	Node int
}

// taskQueue is an unbounded FIFO ring buffer. It is not synchronized; the
// owning WorkerPool guards it with its mutex.
type taskQueue struct {
	buf  []Task
	head int
	size int
}

func newTaskQueue(capacity int) *taskQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &taskQueue{buf: make([]Task, capacity)}
}

func (q *taskQueue) len() int {
	return q.size
}

func (q *taskQueue) push(t Task) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.size)%len(q.buf)] = t
	q.size++
}

func (q *taskQueue) pop() (Task, bool) {
	if q.size == 0 {
		return Task{}, false
	}
	t := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return t, true
}

// drop discards every queued task and returns how many there were.
func (q *taskQueue) drop() int {
	n := q.size
	q.head, q.size = 0, 0
	return n
}

func (q *taskQueue) grow() {
	next := make([]Task, 2*len(q.buf))
	n := copy(next, q.buf[q.head:])
	copy(next[n:], q.buf[:q.head])
	q.buf = next
	q.head = 0
}

// LockedQueue is a handle on the pool's queue that is only valid inside
// WorkerPool.Atomic, while the pool's lock is held.
type LockedQueue struct {
	pool *WorkerPool
}

// Push enqueues t without re-acquiring the pool lock and wakes one idle worker.
func (lq *LockedQueue) Push(t Task) {
	lq.pool.pushLocked(t)
}

// Len returns the number of queued tasks.
func (lq *LockedQueue) Len() int {
	return lq.pool.queue.len()
}
