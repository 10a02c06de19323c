package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(true, reg)

	m.RecordGate("forward")
	m.RecordGate("forward")
	m.RecordGate("login")
	m.RecordLogin("invalid")
	m.RecordRefresh("success")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.gateDecisions.WithLabelValues("forward")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gateDecisions.WithLabelValues("login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("success")))
}

func TestMetricsDisabledIsNoop(t *testing.T) {
	m := New(false, prometheus.NewRegistry())
	assert.NotPanics(t, func() {
		m.RecordGate("forward")
		m.RecordLogin("success")
	})

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordRefresh("error") })
}
