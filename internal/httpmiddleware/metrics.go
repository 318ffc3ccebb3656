package httpmiddleware

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ActionMetrics counts action dispatches and their latency.
type ActionMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewActionMetrics registers the portal action metrics on the default registry.
func NewActionMetrics() *ActionMetrics {
	m := &ActionMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_action_requests_total",
			Help: "Action requests by action name and outcome.",
		}, []string{"action", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_action_duration_seconds",
			Help:    "Action handling latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
	}
	prometheus.MustRegister(m.Requests, m.Duration)
	return m
}

// Observe records one dispatched action.
func (m *ActionMetrics) Observe(action, status string, seconds float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(action, status).Inc()
	m.Duration.WithLabelValues(action).Observe(seconds)
}
