package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPoolMetrics() {
	r.TasksSubmittedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "pgraph_tasks_submitted_total",
			Help: "Total number of tasks enqueued on the worker pool",
		},
	)

	r.TasksExecutedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "pgraph_tasks_executed_total",
			Help: "Total number of tasks dequeued and run by a worker",
		},
	)

	r.TaskFailuresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgraph_task_failures_total",
			Help: "Total number of fatal task failures by kind",
		},
		[]string{"kind"},
	)

	r.WorkersBusy = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "pgraph_workers_busy",
			Help: "Number of workers currently executing a task",
		},
	)

	r.QueueDepth = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "pgraph_queue_depth",
			Help: "Number of tasks waiting in the queue",
		},
	)
}

func (r *Registry) initSystemMetrics() {
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
