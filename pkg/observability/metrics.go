package observability

import (
	"context"

	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the dockwise collectors.
type Metrics struct {
	Turns           *prometheus.CounterVec
	Mismatches      *prometheus.CounterVec
	Repositions     *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
	HandlerErrors   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dockwise_turns_total",
				Help: "Total number of processed entries",
			},
			[]string{"entry"},
		),
		Mismatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dockwise_mismatches_total",
				Help: "Total number of utterances that reached a fallback",
			},
			[]string{"position"},
		),
		Repositions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dockwise_repositions_total",
				Help: "Total number of moves to a dialog node",
			},
			[]string{"position"},
		),
		HandlerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dockwise_handler_duration_seconds",
				Help:    "Duration of handler invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "name"},
		),
		HandlerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dockwise_handler_errors_total",
				Help: "Total number of handler invocations that returned an error",
			},
			[]string{"kind", "name"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Turns, m.Mismatches, m.Repositions, m.HandlerDuration, m.HandlerErrors)
	}
	return m
}

// ObserveMismatch counts a fallback at position.
func (m *Metrics) ObserveMismatch(position string) {
	m.Mismatches.WithLabelValues(position).Inc()
}

// Hooks returns lifecycle hooks feeding the collectors. Mismatches are
// counted through ObserveMismatch, not through the hooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEntryMatched: func(_ context.Context, e *domain.EntryEvent) {
			m.Turns.WithLabelValues(e.Entry).Inc()
		},
		OnReposition: func(_ context.Context, e *domain.EntryEvent) {
			m.Repositions.WithLabelValues(e.Position).Inc()
		},
		OnHandlerReturn: func(_ context.Context, e *domain.HandlerEvent) {
			m.HandlerDuration.WithLabelValues(string(e.Kind), e.Name).Observe(e.Duration.Seconds())
			if e.IsError {
				m.HandlerErrors.WithLabelValues(string(e.Kind), e.Name).Inc()
			}
		},
	}
}
