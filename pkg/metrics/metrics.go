package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcome labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Task failure kinds
const (
	FailureError = "error"
	FailurePanic = "panic"
)

// RecordRun records a finished traversal run
func (r *Registry) RecordRun(status string, duration time.Duration, visited, discarded int, sum int64) {
	r.RunsTotal.WithLabelValues(status).Inc()
	r.RunDuration.Observe(duration.Seconds())
	r.NodesVisitedTotal.Add(float64(visited))
	r.TasksDiscardedTotal.Add(float64(discarded))

	if status == StatusSuccess {
		r.LastRunSum.Set(float64(sum))
	}
}

// RecordSubmit records one enqueued task and the resulting queue depth
func (r *Registry) RecordSubmit(queueDepth int) {
	r.TasksSubmittedTotal.Inc()
	r.QueueDepth.Set(float64(queueDepth))
}

// RecordDequeue records a worker picking up a task
func (r *Registry) RecordDequeue(queueDepth, busy int) {
	r.TasksExecutedTotal.Inc()
	r.QueueDepth.Set(float64(queueDepth))
	r.WorkersBusy.Set(float64(busy))
}

// RecordTaskDone records a worker going back to idle
func (r *Registry) RecordTaskDone(busy int) {
	r.WorkersBusy.Set(float64(busy))
}

// RecordTaskFailure records a fatal task failure of the given kind
func (r *Registry) RecordTaskFailure(kind string) {
	r.TaskFailuresTotal.WithLabelValues(kind).Inc()
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text exposition format, e.g. for a node_exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
