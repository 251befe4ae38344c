// Package metrics exposes the service's Prometheus collectors, registered
// once and shared by every component that needs to record an
// observation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every collector the pipeline records into. One Registry
// is built at startup and threaded through the components by reference,
// the same way *logger.Logger is threaded.
type Registry struct {
	reg *prometheus.Registry

	ModelInvocations *prometheus.CounterVec
	ModelLatency     *prometheus.HistogramVec
	ModelFailures    *prometheus.CounterVec
	EnsembleScore    prometheus.Histogram
	ConflictDetected *prometheus.CounterVec
	SeverityTotal    *prometheus.CounterVec
	AlertsSent       *prometheus.CounterVec
	AlertsSuppressed *prometheus.CounterVec
	EscalationEvents *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// New builds and registers every collector against a fresh registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		ModelInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crisis",
			Name:      "model_invocations_total",
			Help:      "Number of model wrapper invocations, by model_id and outcome.",
		}, []string{"model_id", "outcome"}),
		ModelLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crisis",
			Name:      "model_latency_seconds",
			Help:      "Model wrapper inference latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"model_id"}),
		ModelFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crisis",
			Name:      "model_failures_total",
			Help:      "Model wrapper failures, by model_id.",
		}, []string{"model_id"}),
		EnsembleScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crisis",
			Name:      "ensemble_score",
			Help:      "Distribution of the final ensemble crisis_score.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
		ConflictDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crisis",
			Name:      "conflict_detected_total",
			Help:      "Conflict layer detections, by kind.",
		}, []string{"kind"}),
		SeverityTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crisis",
			Name:      "severity_total",
			Help:      "Assessments, by resulting severity.",
		}, []string{"severity"}),
		AlertsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crisis",
			Name:      "alerts_sent_total",
			Help:      "Webhook alerts sent, by category.",
		}, []string{"category"}),
		AlertsSuppressed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crisis",
			Name:      "alerts_suppressed_total",
			Help:      "Alerts suppressed by cooldown or testing mode, by category.",
		}, []string{"category", "reason"}),
		EscalationEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crisis",
			Name:      "escalation_events_total",
			Help:      "Context analyzer escalation detections, by rate.",
		}, []string{"rate"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crisis",
			Name:      "request_duration_seconds",
			Help:      "End-to-end /analyze request duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		RequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "crisis",
			Name:      "requests_in_flight",
			Help:      "Number of /analyze requests currently being processed.",
		}),
	}
}

// Handler exposes the registry on an http.Handler for GET /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
