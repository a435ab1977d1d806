package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/schedule", http.StatusOK, 10*time.Millisecond)
	m.ObserveUpstreamCall(http.MethodGet, "time_schedule/:id", http.StatusNotFound, 5*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveEditorAction("save", "ok")
	m.SetWorkspaces(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",path="/schedule",status="200"} 1`)
	assert.Contains(t, body, `backend_requests_total{endpoint="time_schedule/:id",method="GET",status="404"} 1`)
	assert.Contains(t, body, `schedule_editor_actions_total{action="save",outcome="ok"} 1`)
	assert.Contains(t, body, "workspaces_active 3")
	assert.Contains(t, body, "cache_hits_total 1")
}

func TestMetricsServiceNilIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.ObserveEditorAction("load", "ok")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
