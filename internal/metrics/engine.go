package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine Prometheus metrics: snapshot cache, keyword indices, search and
// similarity paths.
var (
	SnapshotResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatordex",
			Name:      "snapshot_resolutions_total",
			Help:      "Snapshot resolutions by serving tier",
		},
		[]string{"source"}, // "memory" / "distributed" / "store"
	)

	CacheWritebackFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatordex",
			Name:      "cache_writeback_failures_total",
			Help:      "Fire-and-forget cache write failures",
		},
		[]string{"kind"}, // "snapshot" / "keyword_index" / "similar"
	)

	KeywordIndexBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatordex",
			Name:      "keyword_index_builds_total",
			Help:      "Keyword index constructions",
		},
		[]string{"kind", "source"}, // kind: "full"/"filtered"; source: "built"/"restored"
	)

	FilteredIndexEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "creatordex",
			Name:      "filtered_index_evictions_total",
			Help:      "Entries evicted from the filtered-index cache",
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatordex",
			Name:      "search_requests_total",
			Help:      "Search requests by mode and outcome",
		},
		[]string{"mode", "status"}, // status: "ok" / "degraded" / "error"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "creatordex",
			Name:      "search_duration_seconds",
			Help:      "Search request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"mode"},
	)

	SimilarResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatordex",
			Name:      "similar_resolutions_total",
			Help:      "Similarity resolutions by terminal stage",
		},
		[]string{"stage"}, // "precomputed" / "knn" / "category" / "empty"
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers the engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(SnapshotResolutionsTotal)
	prometheus.MustRegister(CacheWritebackFailuresTotal)
	prometheus.MustRegister(KeywordIndexBuildsTotal)
	prometheus.MustRegister(FilteredIndexEvictionsTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SimilarResolutionsTotal)
	engineMetricsRegistered = true
}
