package metrics

import "github.com/prometheus/client_golang/prometheus"

// Namespace prefixes every civicdex collector.
const Namespace = "civicdex"

// Search, chat and ingestion metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_requests_total",
			Help:      "Total number of matcher invocations",
		},
		[]string{"operation", "outcome"}, // operation: search/diverse; outcome: hit/empty
	)

	ChatAnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "chat_answers_total",
			Help:      "Total number of chat answers",
		},
		[]string{"outcome"}, // "context" / "fallback"
	)

	IngestRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ingest_runs_total",
			Help:      "Total number of ingestion runs",
		},
		[]string{"status"}, // ok/partial/empty/error
	)

	IngestSourceDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "ingest_source_documents",
			Help:      "Documents fetched from each source in the last successful fetch",
		},
		[]string{"source"},
	)

	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream API requests",
		},
		[]string{"source", "status"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	FetchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fetch_cache_total",
			Help:      "Fetch cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var civicMetricsRegistered bool

// RegisterCivicMetrics registers the API, search, chat, ingestion and upstream
// collectors with the default registry. Repeat calls are no-ops.
func RegisterCivicMetrics() {
	if civicMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(ChatAnswersTotal)
	prometheus.MustRegister(IngestRunsTotal)
	prometheus.MustRegister(IngestSourceDocuments)
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamRequestDuration)
	prometheus.MustRegister(FetchCacheTotal)
	prometheus.MustRegister(HTTPRequestDuration, HTTPRequestsTotal, HTTPInFlight)
	civicMetricsRegistered = true
}
