// Package metrics holds the client-side collectors. They live on a private
// registry so tests and multiple clients never collide on the global one.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the client collectors
type Metrics struct {
	Registry *prometheus.Registry

	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	mutations *prometheus.CounterVec
	stale     prometheus.Counter
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskflow",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by endpoint and status code.",
		}, []string{"method", "endpoint", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskflow",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskflow",
			Subsystem: "optimistic",
			Name:      "mutations_total",
			Help:      "Optimistic mutations by entity and outcome.",
		}, []string{"entity", "outcome"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskflow",
			Subsystem: "query",
			Name:      "stale_responses_total",
			Help:      "List responses dropped because a newer query was issued.",
		}),
	}
	m.Registry.MustRegister(m.requests, m.latency, m.mutations, m.stale)
	return m
}

// ObserveRequest records one API round trip. code 0 means a transport error.
func (m *Metrics) ObserveRequest(method, endpoint string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

// Outcome of an optimistic mutation
const (
	Confirmed  = "confirmed"
	RolledBack = "rolled_back"
)

// ObserveMutation counts a settled optimistic mutation
func (m *Metrics) ObserveMutation(entity, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(entity, outcome).Inc()
}

// ObserveStale counts a dropped out-of-date response
func (m *Metrics) ObserveStale() {
	if m == nil {
		return
	}
	m.stale.Inc()
}
