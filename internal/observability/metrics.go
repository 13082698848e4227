package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce     sync.Once
	requestsTotal    *prometheus.CounterVec
	latencySeconds   *prometheus.HistogramVec
	errorsTotal      *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qpflow_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qpflow_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qpflow_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qpflow_submission_transitions_total",
			Help: "Total number of submission status transitions applied.",
		}, []string{"to_status"})

		prometheus.MustRegister(requestsTotal, latencySeconds, errorsTotal, transitionsTotal)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// Transitions exposes the counter for submission status transitions.
func Transitions() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsTotal
}
