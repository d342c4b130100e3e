package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the assistant.
type Metrics struct {
	SessionActive    prometheus.Gauge
	WakeDetections   prometheus.Counter
	IntentDispatches *prometheus.CounterVec
	ListenFailures   *prometheus.CounterVec
	TaskEvents       *prometheus.CounterVec
	HandlerErrors    *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith registers the instruments on reg. Tests pass a fresh
// registry so repeated construction does not collide.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_active",
			Help:      "1 while the session is awake, 0 while dormant.",
		}),
		WakeDetections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wake_detections_total",
			Help:      "Wake phrase detections.",
		}),
		IntentDispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_dispatches_total",
			Help:      "Dispatched utterances by intent.",
		}, []string{"intent"}),
		ListenFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listen_failures_total",
			Help:      "Listen attempts that produced no utterance, by cause.",
		}, []string{"cause"}),
		TaskEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_task_events_total",
			Help:      "Scheduled task lifecycle events by outcome.",
		}, []string{"outcome"}),
		HandlerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_errors_total",
			Help:      "Handler failures converted to spoken apologies, by intent.",
		}, []string{"intent"}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
