package middleware

import (
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/cbdms-web/internal/models"
	"github.com/noah-isme/cbdms-web/internal/service"
	appErrors "github.com/noah-isme/cbdms-web/pkg/errors"
)

func TestErrorBoundaryRendersUnwrittenErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New(ErrorTemplate).Parse(`<h1>{{.Status}}</h1><p>{{.Message}}</p>`)))
	r.Use(ErrorBoundary(nil))
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(appErrors.Clone(appErrors.ErrUpstreamUnavailable, "backend unreachable"))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("raw failure"))
	})
	r.GET("/written", func(c *gin.Context) {
		_ = c.Error(errors.New("ignored"))
		c.String(http.StatusAccepted, "done")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "backend unreachable")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/plain", nil)
	req.Header.Set("Accept", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INTERNAL_ERROR"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/written", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "done", w.Body.String())
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/schedule", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/schedule", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",path="/schedule",status="200"} 1`)
	assert.Contains(t, body, `http_requests_total{method="GET",path="unmatched",status="404"} 1`)
}

func TestAuditLogsSuccessfulMutationsOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextSessionKey, models.Session{UserID: "u1", Role: models.RoleTeacher})
		c.Next()
	})
	r.POST("/schedule/save", Audit(zap.New(core), "save", "time_schedule"), func(c *gin.Context) {
		c.Status(http.StatusSeeOther)
	})
	r.POST("/schedule/delete", Audit(zap.New(core), "delete", "time_schedule"), func(c *gin.Context) {
		_ = c.Error(appErrors.ErrUpstream)
		c.Status(http.StatusSeeOther)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/schedule/save", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/schedule/delete", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "save", fields["action"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "audit", entries[0].LoggerName)
}
