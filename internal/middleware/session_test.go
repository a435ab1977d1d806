package middleware

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cbdms-web/internal/models"
	"github.com/noah-isme/cbdms-web/internal/service"
	appErrors "github.com/noah-isme/cbdms-web/pkg/errors"
	"github.com/noah-isme/cbdms-web/pkg/logger"
)

type authStub struct {
	tokens map[string]models.Session
}

func (a authStub) Session(token string) (models.Session, error) {
	sess, ok := a.tokens[token]
	if !ok {
		return models.Session{}, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return sess, nil
}

var testOptions = SessionOptions{CookieName: "cbdms_sid", TokenCookieName: "access_token", MaxAge: time.Hour}

func newSessionRouter(t *testing.T, registry *service.WorkspaceRegistry) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New(ErrorTemplate).Parse(`{{.Code}}: {{.Message}}`)))
	r.Use(ErrorBoundary(nil))
	auth := authStub{tokens: map[string]models.Session{"tok": {UserID: "u1", Token: "tok"}}}
	r.Use(Session(auth, registry, testOptions))
	r.GET("/who", func(c *gin.Context) {
		sess, ok := GetSession(c)
		require.True(t, ok)
		ws := GetWorkspace(c)
		c.JSON(http.StatusOK, gin.H{"user": sess.UserID, "workspace": ws.ID, "log_user": c.GetString(logger.UserIDKey)})
	})
	return r
}

func TestSessionAttachesWorkspaceFromHeader(t *testing.T) {
	registry := service.NewWorkspaceRegistry(service.WorkspaceDeps{}, time.Minute)
	r := newSessionRouter(t, registry)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer tok")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":"u1"`)
	assert.Contains(t, w.Body.String(), `"log_user":"u1"`)
	assert.Equal(t, 1, registry.Len())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "cbdms_sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSessionReusesBrowserSessionCookie(t *testing.T) {
	registry := service.NewWorkspaceRegistry(service.WorkspaceDeps{}, time.Minute)
	r := newSessionRouter(t, registry)
	sid := "7f6b3a52-2a1c-4d8e-9a5f-0c1d2e3f4a5b"

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/who", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "tok"})
		req.AddCookie(&http.Cookie{Name: "cbdms_sid", Value: sid})
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), sid)
		assert.Empty(t, w.Result().Cookies())
	}
	assert.Equal(t, 1, registry.Len())
}

func TestSessionRejectsMissingOrInvalidToken(t *testing.T) {
	registry := service.NewWorkspaceRegistry(service.WorkspaceDeps{}, time.Minute)
	r := newSessionRouter(t, registry)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Accept", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer nope")
	req.Header.Set("Accept", "text/html")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED: invalid token", w.Body.String())
	assert.Equal(t, 0, registry.Len())
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken(""))
}
