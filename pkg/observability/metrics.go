// Package observability exposes Prometheus metrics for the flow engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's instrument set. A nil *Metrics is valid and
// records nothing, so the interpreter never checks for wiring.
type Metrics struct {
	eventsHandled      *prometheus.CounterVec
	actionsEmitted     *prometheus.CounterVec
	validationFailures prometheus.Counter
	stepLimitAborts    prometheus.Counter
	handleDuration     prometheus.Histogram
}

// New creates the engine metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		eventsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "botflow",
			Name:      "events_handled_total",
			Help:      "Inbound events processed, labeled by outcome.",
		}, []string{"outcome"}),
		actionsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "botflow",
			Name:      "actions_emitted_total",
			Help:      "Outbound actions batched by the interpreter, labeled by action type.",
		}, []string{"type"}),
		validationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "botflow",
			Name:      "input_validation_failures_total",
			Help:      "Input-capture replies rejected by a validator.",
		}),
		stepLimitAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "botflow",
			Name:      "step_limit_aborts_total",
			Help:      "Handle calls aborted by the synchronous step bound.",
		}),
		handleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "botflow",
			Name:      "handle_duration_seconds",
			Help:      "Wall time of one Handle call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.eventsHandled, m.actionsEmitted, m.validationFailures, m.stepLimitAborts, m.handleDuration)
	return m
}

// Outcome labels for ObserveEvent.
const (
	OutcomeAdvanced  = "advanced"
	OutcomeNoMatch   = "no_match"
	OutcomeCompleted = "completed"
	OutcomeError     = "error"
)

// ObserveEvent records one handled inbound event.
func (m *Metrics) ObserveEvent(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.eventsHandled.WithLabelValues(outcome).Inc()
	m.handleDuration.Observe(seconds)
}

// ObserveAction records one emitted outbound action.
func (m *Metrics) ObserveAction(actionType string) {
	if m == nil {
		return
	}
	m.actionsEmitted.WithLabelValues(actionType).Inc()
}

// ObserveValidationFailure records a rejected input capture.
func (m *Metrics) ObserveValidationFailure() {
	if m == nil {
		return
	}
	m.validationFailures.Inc()
}

// ObserveStepLimitAbort records a runaway-graph abort.
func (m *Metrics) ObserveStepLimitAbort() {
	if m == nil {
		return
	}
	m.stepLimitAborts.Inc()
}
