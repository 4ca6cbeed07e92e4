package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the dispatcher's collectors. It also observes the session
// cache.
type Metrics struct {
	tasks         *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	builds        *prometheus.CounterVec
	invalidations prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interop_tasks_total",
			Help: "Searcher tasks dispatched, by searcher and outcome.",
		}, []string{"searcher", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interop_task_duration_seconds",
			Help:    "Wall time of dispatched searcher tasks, including index refresh.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"searcher"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interop_session_builds_total",
			Help: "Compilation session builds, by outcome.",
		}, []string{"outcome"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "interop_session_invalidations_total",
			Help: "Compilation sessions dropped by invalidation.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.tasks, m.duration, m.builds, m.invalidations)
	}
	return m
}

func (m *Metrics) SessionBuilt(_ string, err error) {
	m.builds.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) SessionInvalidated(string) {
	m.invalidations.Inc()
}

func (m *Metrics) observeTask(searcher string, seconds float64, err error) {
	m.tasks.WithLabelValues(searcher, outcome(err)).Inc()
	m.duration.WithLabelValues(searcher).Observe(seconds)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
