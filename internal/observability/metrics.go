package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	ActiveSessions    prometheus.Gauge
	SessionEvents     *prometheus.CounterVec
	Messages          *prometheus.CounterVec
	RoleChecks        prometheus.Counter
	GenerationLatency prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live conversation sessions.",
		}),
		SessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events by type.",
		}, []string{"event"}),
		Messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "User messages by generation outcome.",
		}, []string{"outcome"}),
		RoleChecks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_checks_total",
			Help:      "Role check probes answered by the model.",
		}),
		GenerationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_latency_seconds",
			Help:      "Latency of message generator calls in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		}),
	}
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
	m.SessionEvents.WithLabelValues("created").Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
	m.SessionEvents.WithLabelValues("ended").Inc()
}

// ObserveGeneration records one generator call and its outcome.
func (m *Metrics) ObserveGeneration(d time.Duration, err error, roleCheck bool) {
	if m == nil {
		return
	}
	m.GenerationLatency.Observe(d.Seconds())
	if err != nil {
		m.Messages.WithLabelValues("failed").Inc()
		return
	}
	m.Messages.WithLabelValues("ok").Inc()
	if roleCheck {
		m.RoleChecks.Inc()
	}
}

// Handler exposes the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
