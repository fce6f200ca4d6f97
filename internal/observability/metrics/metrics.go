package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for transition attempts.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// LifecycleMetrics exposes counters/histograms for status transitions and the
// public intake endpoints.
type LifecycleMetrics struct {
	transitionsTotal  *prometheus.CounterVec
	transitionLatency *prometheus.HistogramVec
	recordsCreated    *prometheus.CounterVec
	rateLimited       *prometheus.CounterVec
}

func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	m := &LifecycleMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careflow",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Status transition attempts by entity kind, action and outcome",
		}, []string{"kind", "action", "outcome"}),
		transitionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "careflow",
			Subsystem: "lifecycle",
			Name:      "transition_latency_seconds",
			Help:      "Latency of load-validate-write transition cycles",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		recordsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careflow",
			Subsystem: "records",
			Name:      "created_total",
			Help:      "Records created by entity kind and source",
		}, []string{"kind", "source"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careflow",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}, []string{"route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal, m.transitionLatency, m.recordsCreated, m.rateLimited)
	return m
}

func (m *LifecycleMetrics) ObserveTransition(kind, action, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(kind, action, outcome).Inc()
	m.transitionLatency.WithLabelValues(kind).Observe(seconds)
}

func (m *LifecycleMetrics) ObserveCreated(kind, source string) {
	if m == nil {
		return
	}
	m.recordsCreated.WithLabelValues(kind, source).Inc()
}

// RateLimitedFunc returns a callback suitable for the rate limit middleware.
func (m *LifecycleMetrics) RateLimitedFunc(route string) func() {
	return func() {
		if m == nil {
			return
		}
		m.rateLimited.WithLabelValues(route).Inc()
	}
}
