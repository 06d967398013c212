package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 請求
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// 推薦
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_recommendations_total",
			Help: "Recommendation requests served, by mode (ranked or random)",
		},
		[]string{"mode"},
	)

	ExpiryMatchesServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_expiry_matches_total",
			Help: "Expiry-driven match requests served, by outcome",
		},
		[]string{"outcome"},
	)

	// 圖片識別
	VisionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "food_vision_requests_total",
			Help: "Food vision analysis requests, by result",
		},
		[]string{"result"},
	)

	VisionCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "food_vision_cache_lookups_total",
			Help: "Food vision cache lookups, by hit or miss",
		},
		[]string{"result"},
	)

	VisionBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "food_vision_breaker_state",
			Help: "Circuit breaker state of the vision provider (0 closed, 1 half-open, 2 open)",
		},
	)
)

// RecordHTTPRequest 記錄單次請求耗時
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
