package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation and collaborator Prometheus metrics.
var (
	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attire",
			Name:      "recommendations_total",
			Help:      "Total number of served recommendation requests",
		},
		[]string{"usage"},
	)

	RecommendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "attire",
			Name:      "recommend_duration_seconds",
			Help:      "Encode, retrieve and rerank duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	RetrievedCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "attire",
			Name:      "retrieved_candidates",
			Help:      "Number of candidates returned by the similarity index per request",
			Buckets:   []float64{10, 25, 50, 75, 100},
		},
	)

	WeatherRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attire",
			Name:      "weather_requests_total",
			Help:      "Total forecast provider requests",
		},
		[]string{"status"}, // "ok" / "error"
	)

	WeatherCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attire",
			Name:      "weather_cache_total",
			Help:      "Forecast cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attire",
			Name:      "feedback_total",
			Help:      "Total stored feedback entries",
		},
		[]string{"rating"},
	)
)

// RegisterRecommendMetrics registers all non-HTTP metrics explicitly (no init()).
func RegisterRecommendMetrics() {
	prometheus.MustRegister(
		RecommendationsTotal,
		RecommendDuration,
		RetrievedCandidates,
		WeatherRequestsTotal,
		WeatherCacheTotal,
		FeedbackTotal,
	)
}
