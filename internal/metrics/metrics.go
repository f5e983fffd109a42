// Package metrics exposes Prometheus collectors for the frontier scheduler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	schedulerRequestsTotal     *prometheus.CounterVec
	frontierSize               prometheus.Gauge
	overflowErrorsTotal        prometheus.Counter
	seedChecksTotal            *prometheus.CounterVec
	pagesFetchedTotal          *prometheus.CounterVec
	groundTruthFoundTotal      prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times; the observe helpers call
// it themselves so collectors exist before the first scrape.
func Init() {
	once.Do(func() {
		schedulerRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frontier_scheduler_requests_total",
				Help: "Total requests offered to the scheduler, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		frontierSize = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "frontier_size",
				Help: "Number of requests currently pending across all partitions.",
			},
		)

		overflowErrorsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "frontier_overflow_errors_total",
				Help: "Total disk overflow read/write failures.",
			},
		)

		seedChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frontier_seed_checks_total",
				Help: "Total seed validation results, labeled by result.",
			},
			[]string{"result"},
		)

		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_pages_fetched_total",
				Help: "Total pages fetched by the driver loop, labeled by status class.",
			},
			[]string{"status"},
		)

		groundTruthFoundTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "frontier_ground_truth_found_total",
				Help: "Total target URLs located across all domains.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total status API requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of status API latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveEnqueue counts one scheduler enqueue outcome.
func ObserveEnqueue(outcome string) {
	Init()
	schedulerRequestsTotal.WithLabelValues(outcome).Inc()
}

// SetFrontierSize updates the pending-request gauge.
func SetFrontierSize(n int) {
	Init()
	frontierSize.Set(float64(n))
}

// ObserveOverflowError counts one overflow store I/O failure.
func ObserveOverflowError() {
	Init()
	overflowErrorsTotal.Inc()
}

// ObserveSeedCheck counts one seed validation result ("reachable" or
// "unreachable").
func ObserveSeedCheck(result string) {
	Init()
	seedChecksTotal.WithLabelValues(result).Inc()
}

// ObservePageFetched counts one fetched page by coarse status class.
func ObservePageFetched(statusClass string) {
	Init()
	pagesFetchedTotal.WithLabelValues(statusClass).Inc()
}

// ObserveGroundTruthFound counts one located target URL.
func ObserveGroundTruthFound() {
	Init()
	groundTruthFoundTotal.Inc()
}

// ObserveHTTPRequest increments the status API request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ClassifyStatus groups HTTP status codes for fetch metrics.
func ClassifyStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "other"
	}
}
