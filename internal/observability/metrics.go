// Package observability exposes Prometheus metrics for the session
// engine: request counts, store latency, and cache occupancy.
//
// Registered in NewRegistry and served by the HTTP handler mounted at
// /metrics (Prometheus text exposition format).
package observability

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every metric the service exports.
type Registry struct {
	SessionsCreated  prometheus.Counter
	StepsAdvanced    prometheus.Counter
	SessionErrors    *prometheus.CounterVec
	WalkRebuilds     prometheus.Counter
	StoreLatency     *prometheus.HistogramVec
	CacheSize        prometheus.GaugeFunc
	HTTPRequestTotal *prometheus.CounterVec
}

// NewRegistry constructs and registers every metric on reg.
// cacheSize is polled lazily whenever Prometheus scrapes /metrics.
func NewRegistry(reg *prometheus.Registry, cacheSize func() float64) *Registry {
	m := &Registry{
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optionchainsim_sessions_created_total",
			Help: "Total number of sessions created.",
		}),
		StepsAdvanced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optionchainsim_steps_advanced_total",
			Help: "Total number of get_next_step calls that succeeded.",
		}),
		SessionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optionchainsim_session_errors_total",
			Help: "Session operation failures by error kind.",
		}, []string{"kind"}),
		WalkRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optionchainsim_walk_rebuilds_total",
			Help: "Total number of simulation walk (re)builds.",
		}),
		StoreLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "optionchainsim_store_operation_seconds",
			Help:    "Latency of session store operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optionchainsim_http_requests_total",
			Help: "Total HTTP requests by route and status class.",
		}, []string{"route", "status"}),
	}
	m.CacheSize = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "optionchainsim_cached_walks",
		Help: "Number of session walks currently cached in memory.",
	}, cacheSize)

	reg.MustRegister(
		m.SessionsCreated,
		m.StepsAdvanced,
		m.SessionErrors,
		m.WalkRebuilds,
		m.StoreLatency,
		m.CacheSize,
		m.HTTPRequestTotal,
	)
	return m
}
