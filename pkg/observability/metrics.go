package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	TurnsTotal          prometheus.Counter
	StepsTotal          *prometheus.CounterVec
	ValidationFailures  *prometheus.CounterVec
	GenerationAttempts  prometheus.Counter
	GenerationFallbacks prometheus.Counter
	SessionsCompleted   prometheus.Counter
	SessionsFailed      prometheus.Counter
	RecordSaveFailures  prometheus.Counter
	TurnDuration        prometheus.Histogram
}

// NewMetrics builds the collectors and registers them on reg. Passing
// prometheus.DefaultRegisterer is the usual choice; tests pass a fresh
// registry to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TurnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "turns_total",
			Help:      "Number of driver turns processed.",
		}),
		StepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "steps_total",
			Help:      "Number of workflow steps executed, by step.",
		}, []string{"step"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "validation_failures_total",
			Help:      "Number of rejected field answers, by field.",
		}, []string{"field"}),
		GenerationAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "generation_attempts_total",
			Help:      "Number of summary composition attempts.",
		}),
		GenerationFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "generation_fallbacks_total",
			Help:      "Number of sessions that used the template fallback.",
		}),
		SessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "sessions_completed_total",
			Help:      "Number of sessions reaching completed status.",
		}),
		SessionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "sessions_failed_total",
			Help:      "Number of sessions reaching failed status.",
		}),
		RecordSaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "record_save_failures_total",
			Help:      "Number of durable-record persistence failures.",
		}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "intake",
			Name:      "turn_duration_seconds",
			Help:      "Wall time per driver turn.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.TurnsTotal,
			m.StepsTotal,
			m.ValidationFailures,
			m.GenerationAttempts,
			m.GenerationFallbacks,
			m.SessionsCompleted,
			m.SessionsFailed,
			m.RecordSaveFailures,
			m.TurnDuration,
		)
	}
	return m
}

// NewNopMetrics builds unregistered collectors for use in tests and
// defaults.
func NewNopMetrics() *Metrics {
	return NewMetrics(nil)
}
