package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mro_requests_enqueued_total",
		Help: "Total number of requests placed on the processing queue.",
	})

	RequestsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mro_requests_dropped_total",
		Help: "Total number of requests rejected due to a full queue.",
	})

	Linearizations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mro_linearizations_total",
		Help: "Total number of linearization requests, labelled by outcome.",
	}, []string{"outcome"})

	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mro_dispatches_total",
		Help: "Total number of dispatch requests, labelled by outcome.",
	}, []string{"outcome"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mro_request_duration_ms",
		Help:    "Request processing latency in milliseconds, labelled by operation.",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 50, 100, 500},
	}, []string{"op"})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mro_queue_utilization_ratio",
		Help: "Current request queue utilization (0–1).",
	})

	HierarchyClasses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mro_hierarchy_classes",
		Help: "Number of classes in the currently served hierarchy.",
	})

	HierarchyReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mro_hierarchy_reloads_total",
		Help: "Total number of hierarchy reload attempts, labelled by status.",
	}, []string{"status"})
)
