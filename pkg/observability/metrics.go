package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors fed by the engine lifecycle hooks.
type Metrics struct {
	registry prometheus.Gatherer

	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	StepsEntered      *prometheus.CounterVec
	Decisions         *prometheus.CounterVec
	RenderErrors      *prometheus.CounterVec
	RunDuration       prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on a fresh registry.
// Use NewMetricsWith to share a registry (e.g. prometheus.DefaultRegisterer).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewMetricsWith(reg, reg)
}

// NewMetricsWith registers the collectors on reg and serves them from gatherer.
func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		registry: gatherer,
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stepwise_sessions_started_total",
			Help: "Total number of workflow runs started",
		}),
		SessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stepwise_sessions_completed_total",
			Help: "Total number of workflow runs that reached the results",
		}),
		StepsEntered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepwise_steps_entered_total",
			Help: "Total number of times a step became current",
		}, []string{"step", "kind"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepwise_decisions_total",
			Help: "Total number of applied operator decisions",
		}, []string{"decision", "automatic"}),
		RenderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepwise_render_errors_total",
			Help: "Total number of surface delivery failures",
		}, []string{"op"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stepwise_run_duration_seconds",
			Help:    "Duration from start to results of completed runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	reg.MustRegister(m.SessionsStarted, m.SessionsCompleted, m.StepsEntered, m.Decisions, m.RenderErrors, m.RunDuration)
	return m
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *domain.SessionEvent) {
			m.SessionsStarted.Inc()
		},
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			m.StepsEntered.WithLabelValues(strconv.Itoa(e.Step.Number()), string(e.Step.Kind)).Inc()
		},
		OnDecision: func(ctx context.Context, e *domain.DecisionEvent) {
			m.Decisions.WithLabelValues(e.Decision.String(), strconv.FormatBool(e.Decision.Automatic)).Inc()
		},
		OnTerminal: func(ctx context.Context, e *domain.SessionEvent) {
			m.SessionsCompleted.Inc()
			if e.Duration > 0 {
				m.RunDuration.Observe(e.Duration.Seconds())
			}
		},
		OnRenderError: func(ctx context.Context, e *domain.RenderErrorEvent) {
			m.RenderErrors.WithLabelValues(e.Op).Inc()
		},
	}
}
