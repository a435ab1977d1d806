package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/cbdms-web/internal/models"
	"github.com/noah-isme/cbdms-web/internal/service"
	appErrors "github.com/noah-isme/cbdms-web/pkg/errors"
	"github.com/noah-isme/cbdms-web/pkg/logger"
)

const (
	// ContextSessionKey is the gin context key storing the acting Session.
	ContextSessionKey = "currentSession"
	// ContextWorkspaceKey is the gin context key storing the browser workspace.
	ContextWorkspaceKey = "currentWorkspace"
)

type sessionAuthenticator interface {
	Session(token string) (models.Session, error)
}

type workspaceAttacher interface {
	Attach(id string, sess models.Session) *service.Workspace
}

// SessionOptions configures the browser cookies used by Session.
type SessionOptions struct {
	CookieName      string
	TokenCookieName string
	Secure          bool
	MaxAge          time.Duration
}

// Session authenticates the request with the backend-issued access token
// and attaches the workspace of the browser session. The token is read from
// the Authorization header first and from the token cookie otherwise.
func Session(auth sessionAuthenticator, registry workspaceAttacher, opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && opts.TokenCookieName != "" {
			token, _ = c.Cookie(opts.TokenCookieName)
		}
		if token == "" {
			_ = c.Error(appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		sess, err := auth.Session(token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		sid := browserSessionID(c, opts)
		ws := registry.Attach(sid, sess)

		c.Set(ContextSessionKey, sess)
		c.Set(ContextWorkspaceKey, ws)
		c.Set(logger.UserIDKey, sess.UserID)
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func browserSessionID(c *gin.Context, opts SessionOptions) string {
	if raw, err := c.Cookie(opts.CookieName); err == nil {
		if id, err := uuid.Parse(raw); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(opts.CookieName, id, int(opts.MaxAge.Seconds()), "/", "", opts.Secure, true)
	return id
}

// GetSession returns the acting session stored by Session.
func GetSession(c *gin.Context) (models.Session, bool) {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return models.Session{}, false
	}
	sess, ok := value.(models.Session)
	return sess, ok
}

// GetWorkspace returns the workspace stored by Session.
func GetWorkspace(c *gin.Context) *service.Workspace {
	value, exists := c.Get(ContextWorkspaceKey)
	if !exists {
		return nil
	}
	ws, _ := value.(*service.Workspace)
	return ws
}
