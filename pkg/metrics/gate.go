package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GateMetrics records license gate decisions and authentication outcomes.
type GateMetrics struct {
	decisions   *prometheus.CounterVec
	activations *prometheus.CounterVec
	logins      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewGateMetrics registers the gate metrics on the provided registerer.
func NewGateMetrics(reg prometheus.Registerer) *GateMetrics {
	if reg == nil {
		return &GateMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "license_gate_decisions_total",
		Help: "License gate outcomes by decision code.",
	}, []string{"outcome"})
	activations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "license_activations_total",
		Help: "License activation attempts by result.",
	}, []string{"result"})
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Login attempts by result.",
	}, []string{"result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(decisions, activations, logins, duration)
	return &GateMetrics{
		decisions:   decisions,
		activations: activations,
		logins:      logins,
		duration:    duration,
	}
}

// IncDecision increments the license gate counter for the given outcome.
func (g *GateMetrics) IncDecision(outcome string) {
	if g == nil || g.decisions == nil {
		return
	}
	g.decisions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncActivation increments the activation counter for the given result.
func (g *GateMetrics) IncActivation(result string) {
	if g == nil || g.activations == nil {
		return
	}
	g.activations.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncLogin increments the login counter for the given result.
func (g *GateMetrics) IncLogin(result string) {
	if g == nil || g.logins == nil {
		return
	}
	g.logins.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveRequest records the duration of a handled request.
func (g *GateMetrics) ObserveRequest(method, route string, duration time.Duration) {
	if g == nil || g.duration == nil {
		return
	}
	g.duration.WithLabelValues(normalizeLabel(method), normalizeLabel(route)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
