package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spyglass",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"state", "status"}, // state: primary/degraded/exhausted, status: success/error
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spyglass",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"state"},
	)

	SourceDegradeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spyglass",
			Name:      "source_degrade_total",
			Help:      "Per-source degrade events during retrieval",
		},
		[]string{"source", "reason"}, // reason: unavailable/timeout/empty/no_embedding/error
	)

	SourceSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spyglass",
			Name:      "source_search_duration_seconds",
			Help:      "Per-source search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"source", "method"}, // method: vector/lexical
	)

	DuplicateScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spyglass",
			Name:      "duplicate_scans_total",
			Help:      "Duplicate detection batch scans",
		},
		[]string{"variant", "status"},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spyglass",
			Name:      "query_cache_total",
			Help:      "Search result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers retrieval metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SourceDegradeTotal)
	prometheus.MustRegister(SourceSearchDuration)
	prometheus.MustRegister(DuplicateScansTotal)
	prometheus.MustRegister(QueryCacheTotal)
	searchMetricsRegistered = true
}
