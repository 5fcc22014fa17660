// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the transaction ledger.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer    prometheus.Gatherer
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	audit       *prometheus.CounterVec
}

// New registers the service collectors on reg. Passing a *prometheus.Registry
// also serves it from Handler.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transitions_total",
		Help: "Committed ledger status transitions.",
	}, []string{"ledger", "from", "to"})
	audit := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_entries_total",
		Help: "Audit log entries written, by entity and action.",
	}, []string{"entity", "action"})
	reg.MustRegister(requests, duration, transitions, audit)

	m := &Metrics{
		requests:    requests,
		duration:    duration,
		transitions: transitions,
		audit:       audit,
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncTransition counts a committed ledger status change.
func (m *Metrics) IncTransition(ledger, from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(ledger), from, to).Inc()
}

// IncAudit counts a committed audit entry.
func (m *Metrics) IncAudit(entity, action string) {
	if m == nil || m.audit == nil {
		return
	}
	m.audit.WithLabelValues(normalizeLabel(entity), action).Inc()
}

// Handler serves the exposition format for the registry passed to New, or
// the default registry otherwise.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
