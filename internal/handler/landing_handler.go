package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cbdms-web/pkg/response"
)

// LandingHandler serves the start page. Loading the page publishes the
// teacher's paper list for the rest of the workspace.
type LandingHandler struct {
	flash flashSource
}

// NewLandingHandler builds a new handler.
func NewLandingHandler(flash flashSource) *LandingHandler {
	return &LandingHandler{flash: flash}
}

// Index renders the landing page. Paper list failures are left to the
// error boundary.
func (h *LandingHandler) Index(c *gin.Context) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	papers, err := ws.Loader.Load(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	renderPage(c, h.flash, ws, http.StatusOK, "landing.html", "College based Data Management System", gin.H{
		"Papers": papers,
	})
}

// Papers godoc
// @Summary List the papers of the signed-in teacher
// @Tags Papers
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /api/v1/papers [get]
func (h *LandingHandler) Papers(c *gin.Context) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	papers, err := ws.Loader.Load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, papers, map[string]interface{}{"count": len(papers)})
}
