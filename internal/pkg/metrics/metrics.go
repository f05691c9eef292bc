// Package metrics provides Prometheus metrics for the chat gateway
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway
type Metrics struct {
	Registry *prometheus.Registry

	// Backend (RAG service) calls
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec

	// Chat pipeline
	ChatAnswersTotal   *prometheus.CounterVec
	ChatAnswerDuration prometheus.Histogram

	// Reference data and documents
	StaleResponsesTotal   *prometheus.CounterVec
	PageCacheLookupsTotal *prometheus.CounterVec

	// Citations
	UnresolvedCitationsTotal prometheus.Counter

	// Sessions
	ActiveWorkspaces prometheus.Gauge
}

// NewMetrics creates all metrics on a private registry so several gateways
// (or tests) can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	m := &Metrics{Registry: reg}

	m.BackendRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmachat_backend_requests_total",
			Help: "Total number of requests sent to the RAG backend",
		},
		[]string{"endpoint", "status"},
	)

	m.BackendRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pharmachat_backend_request_duration_seconds",
			Help:    "Duration of RAG backend requests in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)

	m.ChatAnswersTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmachat_chat_answers_total",
			Help: "Chat sends by outcome (success, failure, timeout)",
		},
		[]string{"outcome"},
	)

	m.ChatAnswerDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pharmachat_chat_answer_duration_seconds",
			Help:    "End-to-end duration of a chat send",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	m.StaleResponsesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmachat_stale_responses_total",
			Help: "Responses discarded because a newer request superseded them",
		},
		[]string{"client"},
	)

	m.PageCacheLookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmachat_page_cache_lookups_total",
			Help: "Reference page cache lookups by result",
		},
		[]string{"result"},
	)

	m.UnresolvedCitationsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "pharmachat_unresolved_citations_total",
			Help: "Citation markers that pointed past the end of the sources list",
		},
	)

	m.ActiveWorkspaces = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "pharmachat_active_workspaces",
			Help: "Number of workspaces currently held in memory",
		},
	)

	return m
}

// ObserveRequest records one backend call. Satisfies ragclient.Observer.
func (m *Metrics) ObserveRequest(endpoint, status string, d time.Duration) {
	m.BackendRequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.BackendRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveAnswer records one chat send. outcome is "success", "failure" or "timeout".
func (m *Metrics) ObserveAnswer(outcome string, d time.Duration) {
	m.ChatAnswersTotal.WithLabelValues(outcome).Inc()
	m.ChatAnswerDuration.Observe(d.Seconds())
}

func (m *Metrics) StaleDiscarded(client string) {
	m.StaleResponsesTotal.WithLabelValues(client).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if hit {
		m.PageCacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	m.PageCacheLookupsTotal.WithLabelValues("miss").Inc()
}

func (m *Metrics) UnresolvedCitation() {
	m.UnresolvedCitationsTotal.Inc()
}

func (m *Metrics) WorkspaceOpened() {
	m.ActiveWorkspaces.Inc()
}

func (m *Metrics) WorkspaceClosed() {
	m.ActiveWorkspaces.Dec()
}
