package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine Prometheus metrics.
var (
	ClusteringRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geocore",
			Name:      "clustering_runs_total",
			Help:      "Total number of per-scope clustering runs",
		},
		[]string{"scope", "status"}, // status: ok / skipped / error
	)

	ClusteringDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "geocore",
			Name:      "clustering_run_duration_seconds",
			Help:      "Per-scope clustering run duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"scope"},
	)

	ClustersProduced = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "geocore",
			Name:      "clusters_produced",
			Help:      "Clusters produced by the last run per scope",
		},
		[]string{"scope"},
	)

	RecoSnapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geocore",
			Name:      "reco_snapshots_total",
			Help:      "Total recommendation snapshot generations",
		},
		[]string{"status"}, // status: ok / skipped / error
	)

	RecoBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "geocore",
			Name:      "reco_batch_duration_seconds",
			Help:      "Full recommendation batch duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geocore",
			Name:      "search_requests_total",
			Help:      "Total proximity search requests",
		},
		[]string{"status"}, // status: ok / invalid / error
	)

	SearchHits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "geocore",
			Name:      "search_hits",
			Help:      "Plans returned per proximity search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)
)

// RegisterEngineMetrics registers engine metrics explicitly (no init()).
func RegisterEngineMetrics() {
	prometheus.MustRegister(
		ClusteringRunsTotal,
		ClusteringDuration,
		ClustersProduced,
		RecoSnapshotsTotal,
		RecoBatchDuration,
		SearchRequestsTotal,
		SearchHits,
	)
}
