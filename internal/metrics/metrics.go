// Package metrics provides Prometheus counters for the auth endpoints and
// the request gate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors.  A disabled or nil *Metrics records nothing.
type Metrics struct {
	enabled bool

	gateDecisions *prometheus.CounterVec
	loginAttempts *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.  If enabled is
// false, returns a no-op Metrics instance.
func New(enabled bool, reg prometheus.Registerer) *Metrics {
	m := &Metrics{enabled: enabled}
	if !enabled {
		return m
	}

	m.gateDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_gate_decisions_total",
		Help: "Request gate outcomes",
	}, []string{"outcome"})

	m.loginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	m.refreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_refresh_total",
		Help: "Token refresh exchanges by result",
	}, []string{"result"})

	reg.MustRegister(m.gateDecisions, m.loginAttempts, m.refreshes)
	return m
}

// RecordGate records one gate decision (forward, login, refresh, unauthorized, public).
func (m *Metrics) RecordGate(outcome string) {
	if m == nil || !m.enabled {
		return
	}
	m.gateDecisions.WithLabelValues(outcome).Inc()
}

// RecordLogin records a login attempt result (success, invalid, error).
func (m *Metrics) RecordLogin(result string) {
	if m == nil || !m.enabled {
		return
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

// RecordRefresh records a refresh exchange result (success, invalid, error).
func (m *Metrics) RecordRefresh(result string) {
	if m == nil || !m.enabled {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}
