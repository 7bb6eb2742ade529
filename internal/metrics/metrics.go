// Package metrics provides Prometheus metrics for icalyse.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "icalyse"

var (
	// FetchTotal counts calendar feed downloads by outcome.
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Total number of calendar feed fetches",
		},
		[]string{"status"},
	)

	// FetchDuration measures feed download + parse time.
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of calendar feed fetch and parse in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// PipelineEvents observes how many events a run kept after filtering.
	PipelineEvents = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_events",
			Help:      "Distribution of event counts per pipeline run",
			Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"stage"},
	)

	// RequestsTotal counts export requests by endpoint and status code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"endpoint", "code"},
	)
)

// RecordFetch records a single feed fetch.
func RecordFetch(status string, elapsed time.Duration) {
	FetchTotal.WithLabelValues(status).Inc()
	FetchDuration.Observe(elapsed.Seconds())
}

// RecordPipeline records the event counts of one pipeline run.
func RecordPipeline(total, filtered, output int) {
	PipelineEvents.WithLabelValues("loaded").Observe(float64(total))
	PipelineEvents.WithLabelValues("filtered").Observe(float64(filtered))
	PipelineEvents.WithLabelValues("output").Observe(float64(output))
}

// RecordRequest counts one served HTTP request.
func RecordRequest(endpoint string, code int) {
	RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
