package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsAreIsolatedPerInstance(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.ObserveRequest("answer", "200", 120*time.Millisecond)
	a.ObserveRequest("answer", "200", 80*time.Millisecond)
	b.ObserveRequest("answer", "500", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.BackendRequestsTotal.WithLabelValues("answer", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.BackendRequestsTotal.WithLabelValues("answer", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.BackendRequestsTotal.WithLabelValues("answer", "500")))
}

func TestCounters(t *testing.T) {
	m := NewMetrics()

	m.ObserveAnswer("failure", time.Second)
	m.StaleDiscarded("reference")
	m.StaleDiscarded("reference")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.UnresolvedCitation()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChatAnswersTotal.WithLabelValues("failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StaleResponsesTotal.WithLabelValues("reference")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PageCacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PageCacheLookupsTotal.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnresolvedCitationsTotal))
}

func TestActiveWorkspacesGauge(t *testing.T) {
	m := NewMetrics()
	m.WorkspaceOpened()
	m.WorkspaceOpened()
	m.WorkspaceClosed()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveWorkspaces))
}
