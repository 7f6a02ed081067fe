package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Reactions
	reactionTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reaction_toggles_total",
			Help: "Reaction toggles by target type and resulting state",
		},
		[]string{"target_type", "result"},
	)

	reactionConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reaction_toggle_conflicts_total",
			Help: "Concurrent reaction write collisions",
		},
		[]string{"outcome"},
	)

	// Ranking
	rankingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_requests_total",
			Help: "Ranking requests by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	rankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ranking_duration_seconds",
			Help:    "End-to-end ranking pipeline latency",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	rankingCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ranking_candidates",
			Help:    "Candidate pool size after filtering",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"mode"},
	)

	rankingCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_cache_total",
			Help: "Ranking cache lookups",
		},
		[]string{"result"},
	)

	// Dependency health metrics
	dependencyHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_health",
			Help: "Health status of dependencies (1 = healthy, 0 = unhealthy)",
		},
		[]string{"dependency"},
	)
)

func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func RecordToggle(targetType, result string) {
	reactionTogglesTotal.WithLabelValues(targetType, result).Inc()
}

// RecordToggleConflict counts a collision; outcome is "retried" or "exhausted".
func RecordToggleConflict(outcome string) {
	reactionConflictsTotal.WithLabelValues(outcome).Inc()
}

func RecordRanking(mode, status string, duration time.Duration) {
	rankingRequestsTotal.WithLabelValues(mode, status).Inc()
	rankingDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func RecordCandidates(mode string, n int) {
	rankingCandidates.WithLabelValues(mode).Observe(float64(n))
}

func RecordCache(hit bool) {
	if hit {
		rankingCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	rankingCacheTotal.WithLabelValues("miss").Inc()
}

// SetDependencyHealth sets the health status of a dependency
func SetDependencyHealth(dependency string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	dependencyHealth.WithLabelValues(dependency).Set(value)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
