// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	ConsentsGranted    prometheus.Counter
	ConsentsRevoked    prometheus.Counter
	FieldsAnonymized   prometheus.Counter
	FieldsRestored     prometheus.Counter
	SweepRuns          prometheus.Counter
	SweepDuration      prometheus.Histogram
	ReasonsDeactivated prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ConsentsGranted: factory.NewCounter(prometheus.CounterOpts{
			Name: "lethe_consents_granted_total",
			Help: "Legal reasons created.",
		}),
		ConsentsRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "lethe_consents_revoked_total",
			Help: "Legal reasons deactivated on request.",
		}),
		FieldsAnonymized: factory.NewCounter(prometheus.CounterOpts{
			Name: "lethe_fields_anonymized_total",
			Help: "Field values transformed by the engine.",
		}),
		FieldsRestored: factory.NewCounter(prometheus.CounterOpts{
			Name: "lethe_fields_restored_total",
			Help: "Field values restored from anonymized form.",
		}),
		SweepRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "lethe_sweep_runs_total",
			Help: "Retention sweep executions.",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lethe_sweep_duration_seconds",
			Help:    "Wall time of a full retention sweep.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		ReasonsDeactivated: factory.NewCounter(prometheus.CounterOpts{
			Name: "lethe_reasons_deactivated_total",
			Help: "Expired legal reasons deactivated by the sweeper.",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lethe_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lethe_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
