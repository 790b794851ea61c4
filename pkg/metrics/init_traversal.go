package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTraversalMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgraph_runs_total",
			Help: "Total number of traversal runs by outcome",
		},
		[]string{"status"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pgraph_run_duration_seconds",
			Help:    "Traversal run duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
	)

	r.NodesVisitedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "pgraph_nodes_visited_total",
			Help: "Total number of nodes claimed and folded into the accumulator",
		},
	)

	r.TasksDiscardedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "pgraph_tasks_discarded_total",
			Help: "Total number of tasks dropped because their node was already claimed",
		},
	)

	r.LastRunSum = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "pgraph_last_run_sum",
			Help: "Accumulated total of the most recent successful run",
		},
	)
}
