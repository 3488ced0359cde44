// Package telemetry exposes the server's prometheus metrics and the
// collaborator that reports infrastructure failures.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the server collectors.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InfraErrors     *prometheus.CounterVec
	EmailsSent      *prometheus.CounterVec
}

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

// NewMetrics creates the collectors and registers them on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_requests_total",
				Help: "Total RPCs handled, by method and status code.",
			},
			[]string{"method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gophauth_request_duration_seconds",
				Help:    "RPC duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		InfraErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_infrastructure_errors_total",
				Help: "Infrastructure failures hidden from callers, by operation.",
			},
			[]string{"operation"},
		),
		EmailsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_emails_total",
				Help: "Verification emails dispatched, by template and result.",
			},
			[]string{"template", "result"},
		),
	}

	registry.MustRegister(m.Requests, m.RequestDuration, m.InfraErrors, m.EmailsSent)
	return m
}

// ObserveRequest records one finished RPC.
func (m *Metrics) ObserveRequest(method, code string, d time.Duration) {
	m.Requests.WithLabelValues(method, code).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveEmail records one dispatch attempt.
func (m *Metrics) ObserveEmail(template string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EmailsSent.WithLabelValues(template, result).Inc()
}

// Handler serves registry in the prometheus text format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
