package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	mediaRejectedTotal   *prometheus.CounterVec
	projectViewsTotal    prometheus.Counter
	relayConnections     prometheus.Gauge
	relayMessagesTotal   *prometheus.CounterVec
	authAttemptsTotal    *prometheus.CounterVec
	uploadRequestsTotal  *prometheus.CounterVec
	uploadRejectedTotal  *prometheus.CounterVec
	uploadLatencySeconds prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradlink_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gradlink_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradlink_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		mediaRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradlink_media_rejected_total",
			Help: "Media entries dropped by the normalizer, by kind and reason.",
		}, []string{"kind", "reason"})

		projectViewsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gradlink_project_views_total",
			Help: "Project detail views recorded.",
		})

		relayConnections = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gradlink_relay_connections",
			Help: "Open websocket relay connections on this node.",
		})

		relayMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradlink_relay_messages_total",
			Help: "Messages delivered through the websocket relay, by origin.",
		}, []string{"origin"})

		authAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradlink_auth_attempts_total",
			Help: "Sign-in attempts by method and outcome.",
		}, []string{"method", "outcome"})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradlink_upload_requests_total",
			Help: "Successful uploads by detected type.",
		}, []string{"type"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradlink_upload_rejected_total",
			Help: "Rejected uploads by reason.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gradlink_upload_latency_seconds",
			Help:    "Time spent validating and storing uploads.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			mediaRejectedTotal,
			projectViewsTotal,
			relayConnections,
			relayMessagesTotal,
			authAttemptsTotal,
			uploadRequestsTotal,
			uploadRejectedTotal,
			uploadLatencySeconds,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// MediaRejected exposes the counter of dropped media entries.
func MediaRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return mediaRejectedTotal
}

// ProjectViews exposes the project view counter.
func ProjectViews() prometheus.Counter {
	RegisterMetrics()
	return projectViewsTotal
}

// RelayConnections exposes the open relay connection gauge.
func RelayConnections() prometheus.Gauge {
	RegisterMetrics()
	return relayConnections
}

// RelayMessages exposes the relay delivery counter.
func RelayMessages() *prometheus.CounterVec {
	RegisterMetrics()
	return relayMessagesTotal
}

// AuthAttempts exposes the sign-in attempt counter.
func AuthAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return authAttemptsTotal
}

// UploadRequests exposes the successful upload counter.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadRejected exposes the rejected upload counter.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency exposes the upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}
