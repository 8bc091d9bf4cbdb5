package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-console/pkg/bulkaction"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/pages/:page", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/pages/:page", http.StatusOK, 40*time.Millisecond)
	m.ObserveUpstream("list", http.StatusOK, time.Millisecond)
	m.ObserveUpstream("list", 0, time.Millisecond)
	m.ObserveUpstream("bulk_patch", http.StatusBadGateway, time.Millisecond)
	m.RowCacheLookup("students", true)
	m.RowCacheLookup("students", false)
	m.RowCacheLookup("students", true)
	m.RowCacheLookup("students", true)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 30.0, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snap.UpstreamErrors)
	assert.InDelta(t, 0.75, snap.RowCacheHitRatio, 0.001)
	assert.Equal(t, int64(1), snap.ActiveSessions)
}

func TestMetricsHandlerExposesConsoleCollectors(t *testing.T) {
	m := NewMetricsService()
	m.BulkFinished("students", bulkaction.KindDelete, bulkaction.StatePartiallyFailed)
	m.StaleResponse("rfid-logs")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `page="students"`)
	assert.Contains(t, body, `page="rfid-logs"`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.RowCacheLookup("students", true)
	m.SessionOpened()
	assert.Zero(t, m.Snapshot().RequestsTotal)
}
