// Package metrics bundles the Prometheus collectors of the bot and serves them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry      *prometheus.Registry
	cyclesTotal   *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	notifications *prometheus.CounterVec
	sourceCalls   *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "match_bot",
			Name:      "worker_cycles_total",
			Help:      "Worker cycles by worker and result",
		}, []string{"worker", "result"}),
		cycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "match_bot",
			Name:      "worker_cycle_duration_seconds",
			Help:      "Histogram of worker cycle durations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"worker"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "match_bot",
			Name:      "notifications_total",
			Help:      "Notifications by event kind and result",
		}, []string{"kind", "result"}),
		sourceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "match_bot",
			Name:      "source_calls_total",
			Help:      "Data source calls by source, operation and result",
		}, []string{"source", "operation", "result"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "match_bot",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
	}

	registry.MustRegister(
		m.cyclesTotal,
		m.cycleDuration,
		m.notifications,
		m.sourceCalls,
		m.breakerState,
	)

	return m
}

// Handler returns an HTTP handler exposing the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycle records one worker cycle.
func (m *Metrics) ObserveCycle(worker string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.cyclesTotal.WithLabelValues(worker, result).Inc()
	m.cycleDuration.WithLabelValues(worker).Observe(dur.Seconds())
}

// IncNotification counts one notification attempt. result is one of
// "delivered", "failed" or "suppressed".
func (m *Metrics) IncNotification(kind, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

// IncSourceCall counts one data source call.
func (m *Metrics) IncSourceCall(source, operation, result string) {
	if m == nil {
		return
	}
	m.sourceCalls.WithLabelValues(source, operation, result).Inc()
}

// SetBreakerState records the numeric state of a circuit breaker.
func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(state)
}
