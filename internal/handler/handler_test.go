package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cbdms-web/internal/middleware"
	"github.com/noah-isme/cbdms-web/internal/models"
	"github.com/noah-isme/cbdms-web/internal/repository"
	"github.com/noah-isme/cbdms-web/internal/service"
	"github.com/noah-isme/cbdms-web/internal/web"
	"github.com/noah-isme/cbdms-web/pkg/apiclient"
	"github.com/noah-isme/cbdms-web/pkg/config"
)

// fakeBackend emulates the time_schedule and paper endpoints of the backend API.
type fakeBackend struct {
	mu        sync.Mutex
	schedules map[string]models.ScheduleRecord
	papers    []models.Paper
	failPaper bool
	failWrite bool
	requests  []string
	bodies    []models.SchedulePayload
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		schedules: make(map[string]models.ScheduleRecord),
		papers: []models.Paper{
			{ID: "p1", Name: "MATH101", Label: "Mathematics I"},
			{ID: "p2", Name: "PHY201", Label: "Physics II"},
		},
	}
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasPrefix(r.URL.Path, "/paper/teacher/"):
		if b.failPaper {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"paper service down"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(b.papers)
	case strings.HasPrefix(r.URL.Path, "/time_schedule/"):
		key := strings.TrimPrefix(r.URL.Path, "/time_schedule/")
		b.schedule(w, r, key)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (b *fakeBackend) schedule(w http.ResponseWriter, r *http.Request, key string) {
	switch r.Method {
	case http.MethodGet:
		rec, ok := b.schedules[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Time schedule not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(rec)
	case http.MethodPost, http.MethodPatch:
		if b.failWrite {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var payload models.SchedulePayload
		_ = json.NewDecoder(r.Body).Decode(&payload)
		b.bodies = append(b.bodies, payload)
		rec := b.schedules[key]
		if rec.ID == "" {
			rec.ID = "sched-" + key
		}
		rec.User = payload.User
		rec.Schedule = payload.Schedule
		b.schedules[key] = rec
		_, _ = w.Write([]byte(`{"message":"Time schedule saved successfully","_id":"` + rec.ID + `"}`))
	case http.MethodDelete:
		for user, rec := range b.schedules {
			if rec.ID == key {
				delete(b.schedules, user)
			}
		}
		_, _ = w.Write([]byte(`{"message":"Time schedule deleted successfully"}`))
	}
}

type harness struct {
	engine        *gin.Engine
	backend       *fakeBackend
	registry      *service.WorkspaceRegistry
	notifications *service.NotificationService
	session       models.Session
}

const testWorkspace = "ws-test"

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := newFakeBackend()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	api := apiclient.New(config.APIConfig{BaseURL: srv.URL, Timeout: time.Second}, nil, nil)
	notifications := service.NewNotificationService(nil)
	registry := service.NewWorkspaceRegistry(service.WorkspaceDeps{
		Schedules:     repository.NewScheduleRepository(api),
		Papers:        repository.NewPaperRepository(api),
		Notifications: notifications,
	}, time.Minute)

	templates, err := web.Templates()
	require.NoError(t, err)

	h := &harness{
		backend:       backend,
		registry:      registry,
		notifications: notifications,
		session:       models.Session{UserID: "u1", FullName: "Ada Lovelace", Role: models.RoleTeacher, Token: "tok"},
	}

	r := gin.New()
	r.SetHTMLTemplate(templates)
	r.Use(middleware.ErrorBoundary(nil))
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextSessionKey, h.session)
		c.Set(middleware.ContextWorkspaceKey, registry.Attach(testWorkspace, h.session))
		c.Next()
	})

	landing := NewLandingHandler(notifications)
	schedule := NewScheduleHandler(notifications, service.NewExportService(nil, nil, nil), nil)
	ws := NewWSHandler(notifications, nil, nil)
	r.GET("/", landing.Index)
	r.GET("/api/v1/papers", landing.Papers)
	r.GET("/schedule", schedule.Page)
	r.GET("/api/v1/schedule", schedule.Get)
	r.GET("/schedule/export", schedule.Export)
	r.POST("/schedule/edit", schedule.Unlock)
	r.POST("/schedule/slot", schedule.SetSlot)
	r.POST("/schedule/save", schedule.Save)
	r.POST("/schedule/delete", schedule.Delete)
	r.POST("/schedule/reload", schedule.Reload)
	r.GET("/ws/notifications", ws.Notifications)
	h.engine = r
	return h
}

func (h *harness) do(method, path, body string, accept string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

type viewEnvelope struct {
	Data  models.EditorView `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) viewEnvelope {
	t.Helper()
	var env viewEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}
