// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of requests currently being served",
		},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Filter engine
	RecipeFilterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipe_filter_duration_seconds",
			Help:    "Duration of recipe filter queries (count and page load) in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tags", "ingredients"},
	)

	RecipeFilterErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_filter_errors_total",
			Help: "Total number of recipe filter queries that failed",
		},
	)

	// Loader
	LoaderRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_rows_total",
			Help: "Rows processed by the recipe loader",
		},
		[]string{"result"},
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecipeFilter records a filter query. The labels only say whether
// each dimension was constrained, keeping cardinality fixed.
func RecordRecipeFilter(byTags, byIngredients bool, duration time.Duration, err error) {
	if err != nil {
		RecipeFilterErrors.Inc()
		return
	}
	RecipeFilterDuration.WithLabelValues(strconv.FormatBool(byTags), strconv.FormatBool(byIngredients)).
		Observe(duration.Seconds())
}

// RecordLoaderRows adds n rows with the given result (loaded or skipped).
func RecordLoaderRows(result string, n int) {
	LoaderRowsTotal.WithLabelValues(result).Add(float64(n))
}
