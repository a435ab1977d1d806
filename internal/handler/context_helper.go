package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cbdms-web/internal/middleware"
	"github.com/noah-isme/cbdms-web/internal/models"
	"github.com/noah-isme/cbdms-web/internal/service"
	appErrors "github.com/noah-isme/cbdms-web/pkg/errors"
)

const schedulePath = "/schedule"

type flashSource interface {
	Drain(key string) []models.Notification
}

func workspaceFromContext(c *gin.Context) (*service.Workspace, error) {
	ws := middleware.GetWorkspace(c)
	if ws == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "no active session")
	}
	return ws, nil
}

// renderPage renders a full page and hands it the flash messages queued for
// the workspace.
func renderPage(c *gin.Context, flash flashSource, ws *service.Workspace, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	if sess, ok := middleware.GetSession(c); ok {
		data["Session"] = sess
	}
	if flash != nil && ws != nil {
		data["Flash"] = flash.Drain(ws.ID)
	}
	c.HTML(status, name, data)
}
