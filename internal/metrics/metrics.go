package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_recommendation_requests_total",
			Help: "Total number of recommendation requests by category and outcome",
		},
		[]string{"category", "outcome"}, // outcome: "ok", "network", "decode", "stale", "skipped"
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinematch_recommendation_duration_seconds",
			Help:    "Duration of recommendation backend requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"category"},
	)

	RecommendationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinematch_recommendations_in_flight",
			Help: "Current number of outstanding recommendation requests",
		},
	)

	// Catalog Metrics
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_catalog_requests_total",
			Help: "Total number of catalog API requests",
		},
		[]string{"endpoint", "outcome"},
	)

	CatalogCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinematch_catalog_cache_hits_total",
			Help: "Total number of catalog page cache hits",
		},
	)

	CatalogCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinematch_catalog_cache_misses_total",
			Help: "Total number of catalog page cache misses",
		},
	)

	UpcomingPagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinematch_upcoming_pages_fetched_total",
			Help: "Total number of upcoming pages fetched by the release pipeline",
		},
	)

	UpcomingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_upcoming_runs_total",
			Help: "Total number of upcoming pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	// Favorites Metrics
	Favorites = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinematch_favorites",
			Help: "Current number of favorite movies",
		},
	)

	FavoritesToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_favorites_toggles_total",
			Help: "Total number of favorite toggles",
		},
		[]string{"action"}, // "added", "removed"
	)

	FavoritesPersistErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinematch_favorites_persist_errors_total",
			Help: "Total number of failed favorites writes",
		},
	)

	// Carousel Metrics
	CarouselMoves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_carousel_moves_total",
			Help: "Total number of carousel index changes",
		},
		[]string{"carousel", "trigger"}, // trigger: "auto", "next", "previous", "jump"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinematch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breakers",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_events_published_total",
			Help: "Total number of favorites change events published",
		},
		[]string{"outcome"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinematch_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"limiter"},
	)
)

// RecordRecommendation records the outcome of one recommendation request
func RecordRecommendation(category, outcome string, duration time.Duration) {
	RecommendationRequests.WithLabelValues(category, outcome).Inc()
	if duration > 0 {
		RecommendationDuration.WithLabelValues(category).Observe(duration.Seconds())
	}
}

// RecordCatalogRequest records a catalog API request
func RecordCatalogRequest(endpoint string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	CatalogRequests.WithLabelValues(endpoint, outcome).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordToggle records a favorites toggle
func RecordToggle(added bool, count int) {
	action := "removed"
	if added {
		action = "added"
	}
	FavoritesToggles.WithLabelValues(action).Inc()
	Favorites.Set(float64(count))
}
