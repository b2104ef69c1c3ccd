package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegistersAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg, func() float64 { return 7 })

	// Labeled vectors only show up in Gather once a child exists.
	m.SessionsCreated.Inc()
	m.SessionErrors.WithLabelValues("not_found").Inc()
	m.StoreLatency.WithLabelValues("get").Observe(0.001)
	m.HTTPRequestTotal.WithLabelValues("/healthz", "2xx").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"optionchainsim_sessions_created_total",
		"optionchainsim_steps_advanced_total",
		"optionchainsim_session_errors_total",
		"optionchainsim_walk_rebuilds_total",
		"optionchainsim_store_operation_seconds",
		"optionchainsim_cached_walks",
		"optionchainsim_http_requests_total",
	} {
		assert.True(t, names[want], "expected metric %s to be registered", want)
	}
}

func TestCacheSizeGaugeReflectsCallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRegistry(reg, func() float64 { return 4 })

	families, err := reg.Gather()
	require.NoError(t, err)

	var got float64
	for _, f := range families {
		if f.GetName() == "optionchainsim_cached_walks" {
			got = f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(4), got)
}
