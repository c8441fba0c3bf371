// Package metrics defines Prometheus metrics for the risk engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskmesh_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskmesh_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "riskmesh_request_latency_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path", "status"},
	)

	PropagationLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "riskmesh_propagation_latency_ms",
			Help:    "Risk propagation latency in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
		},
	)

	GraphNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "riskmesh_graph_nodes",
			Help: "Total nodes in the entity graph",
		},
	)

	GraphEdges = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "riskmesh_graph_edges",
			Help: "Total edges in the entity graph",
		},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "riskmesh_cache_hits_total",
			Help: "Result cache hits",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "riskmesh_cache_misses_total",
			Help: "Result cache misses",
		},
	)

	FlaggedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "riskmesh_flagged_total",
			Help: "Transactions scored at or above the flag threshold",
		},
	)

	SinkDeadLetter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "riskmesh_sink_dead_letter_total",
			Help: "Transaction rows dropped after exhausting sink retries or queue capacity",
		},
	)

	SinkQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "riskmesh_sink_queue_depth",
			Help: "Current depth of the durable sink write queue",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal, ErrorsTotal,
		RequestLatency, PropagationLatency,
		GraphNodes, GraphEdges,
		CacheHits, CacheMisses, FlaggedTotal,
		SinkDeadLetter, SinkQueueDepth,
	)
}
