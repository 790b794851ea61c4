package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the traversal engine
type Registry struct {
	// Traversal Metrics
	RunsTotal           *prometheus.CounterVec
	RunDuration         prometheus.Histogram
	NodesVisitedTotal   prometheus.Counter
	TasksDiscardedTotal prometheus.Counter
	LastRunSum          prometheus.Gauge

	// Pool Metrics
	TasksSubmittedTotal prometheus.Counter
	TasksExecutedTotal  prometheus.Counter
	TaskFailuresTotal   *prometheus.CounterVec
	WorkersBusy         prometheus.Gauge
	QueueDepth          prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initTraversalMetrics()
	r.initPoolMetrics()
	r.initSystemMetrics()

	return r
}
