// Package metrics holds skygate's Prometheus collectors.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels for auth operations.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	AuthOperationsTotal *prometheus.CounterVec
	ProducerRunsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		AuthOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skygate_auth_operations_total",
				Help: "Total number of register/login/authorize operations by result",
			},
			[]string{"op", "result"},
		),
		ProducerRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skygate_producer_runs_total",
				Help: "Total number of producer runs by outcome",
			},
			[]string{"outcome"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skygate_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_class"},
		),
		gatherer: registry,
	}

	registry.MustRegister(
		m.AuthOperationsTotal,
		m.ProducerRunsTotal,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordAuth counts one auth operation.
func (m *Metrics) RecordAuth(op, result string) {
	if m == nil {
		return
	}
	m.AuthOperationsTotal.WithLabelValues(op, result).Inc()
}

// RecordProducerRun counts one producer run by outcome.
func (m *Metrics) RecordProducerRun(outcome string) {
	if m == nil {
		return
	}
	m.ProducerRunsTotal.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest observes a request duration.
func (m *Metrics) RecordHTTPRequest(method, statusClass string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, statusClass).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
