package casewatch

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the prometheus metrics of a Service. Every Metrics owns its registry so several services can live
// in one process.
type Metrics struct {
	registry         *prometheus.Registry
	triggers         *prometheus.CounterVec
	events           *prometheus.CounterVec
	detectorFailures *prometheus.CounterVec
	dispatchFailures prometheus.Counter
	handleLatency    prometheus.Histogram
}

// NewMetrics creates the service metrics on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		triggers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casewatch_triggers_total",
			Help: "Total document write triggers by document change type",
		}, []string{"change_type"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casewatch_events_detected_total",
			Help: "Total domain events detected by kind",
		}, []string{"kind"}),
		detectorFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casewatch_detector_failures_total",
			Help: "Total detector panics by detector",
		}, []string{"detector"}),
		dispatchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "casewatch_dispatch_failures_total",
			Help: "Total triggers whose events failed to dispatch",
		}),
		handleLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "casewatch_handle_duration_seconds",
			Help:    "Duration of handling a trigger (diff, detection & dispatch)",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

// Handler serves the metrics in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeTrigger(change *DocumentChange, events []DomainEvent, seconds float64) {
	if m == nil {
		return
	}
	m.triggers.WithLabelValues(string(change.ChangeType)).Inc()
	for _, e := range events {
		m.events.WithLabelValues(string(e.Kind())).Inc()
	}
	m.handleLatency.Observe(seconds)
}

func (m *Metrics) observeDetectorFailure(detector string) {
	if m == nil {
		return
	}
	m.detectorFailures.WithLabelValues(detector).Inc()
}

func (m *Metrics) observeDispatchFailure() {
	if m == nil {
		return
	}
	m.dispatchFailures.Inc()
}
