package handler

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/cbdms-web/internal/models"
	"github.com/noah-isme/cbdms-web/internal/service"
	appErrors "github.com/noah-isme/cbdms-web/pkg/errors"
	"github.com/noah-isme/cbdms-web/pkg/response"
)

type notificationHub interface {
	flashSource
	Notify(key string, level models.NotificationLevel, message string) models.Notification
}

type scheduleExporter interface {
	Export(view models.EditorView, format models.ExportFormat) (*service.ExportFile, error)
}

type editorAction func(ctx context.Context, editor *service.ScheduleEditor) (models.EditorView, error)

// ScheduleHandler exposes the weekly time schedule editor.
type ScheduleHandler struct {
	notifications notificationHub
	exports       scheduleExporter
	logger        *zap.Logger
}

// NewScheduleHandler builds a new handler.
func NewScheduleHandler(notifications notificationHub, exports scheduleExporter, logger *zap.Logger) *ScheduleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleHandler{notifications: notifications, exports: exports, logger: logger}
}

// prepare makes sure the paper options and the grid have been fetched once
// for the workspace identity. Load failures stay visible in the view.
func (h *ScheduleHandler) prepare(c *gin.Context, ws *service.Workspace) (models.EditorView, error) {
	ctx := c.Request.Context()
	if _, err := ws.Loader.Load(ctx); err != nil && !errors.Is(err, appErrors.ErrStaleResponse) {
		h.logger.Warn("paper options unavailable", zap.String("workspace", ws.ID), zap.Error(err))
		_ = c.Error(err)
	}
	view, err := ws.Editor.EnsureLoaded(ctx)
	if errors.Is(err, appErrors.ErrStaleResponse) {
		return ws.Editor.View(), nil
	}
	return view, err
}

// Page renders the editor.
func (h *ScheduleHandler) Page(c *gin.Context) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	view, err := h.prepare(c, ws)
	if err != nil {
		_ = c.Error(err)
	}
	renderPage(c, h.notifications, ws, http.StatusOK, "schedule.html", "Time Schedule", gin.H{"View": view})
}

// Get godoc
// @Summary Current state of the schedule editor
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /api/v1/schedule [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.prepare(c, ws)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Unlock godoc
// @Summary Switch a stored schedule into edit mode
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/edit [post]
func (h *ScheduleHandler) Unlock(c *gin.Context) {
	h.run(c, func(_ context.Context, editor *service.ScheduleEditor) (models.EditorView, error) {
		return editor.Unlock()
	})
}

// SetSlot godoc
// @Summary Place a paper into one slot of the grid
// @Tags Schedule
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param day formData string true "Weekday (monday..friday)"
// @Param index formData int true "Period index (0..4)"
// @Param value formData string true "Paper name or --"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule/slot [post]
func (h *ScheduleHandler) SetSlot(c *gin.Context) {
	var edit models.SlotEdit
	if err := c.ShouldBind(&edit); err != nil {
		h.run(c, func(context.Context, *service.ScheduleEditor) (models.EditorView, error) {
			return models.EditorView{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot edit")
		})
		return
	}
	h.run(c, func(_ context.Context, editor *service.ScheduleEditor) (models.EditorView, error) {
		return editor.SetSlot(edit)
	})
}

// Save godoc
// @Summary Create or update the stored schedule
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /schedule/save [post]
func (h *ScheduleHandler) Save(c *gin.Context) {
	h.run(c, func(ctx context.Context, editor *service.ScheduleEditor) (models.EditorView, error) {
		return editor.Save(ctx)
	})
}

// Delete godoc
// @Summary Delete the stored schedule
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /schedule/delete [post]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	h.run(c, func(ctx context.Context, editor *service.ScheduleEditor) (models.EditorView, error) {
		return editor.Delete(ctx)
	})
}

// Reload godoc
// @Summary Fetch the stored schedule and the paper options again
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /schedule/reload [post]
func (h *ScheduleHandler) Reload(c *gin.Context) {
	if ws, err := workspaceFromContext(c); err == nil {
		if _, err := ws.Loader.Refresh(c.Request.Context()); err != nil && !errors.Is(err, appErrors.ErrStaleResponse) {
			h.logger.Warn("paper options refresh failed", zap.String("workspace", ws.ID), zap.Error(err))
		}
	}
	h.run(c, func(ctx context.Context, editor *service.ScheduleEditor) (models.EditorView, error) {
		return editor.Reload(ctx)
	})
}

// run applies an editor action. JSON clients get the resulting view, form
// posts are redirected back to the editor page.
func (h *ScheduleHandler) run(c *gin.Context, action editorAction) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		if response.WantsJSON(c) {
			response.Error(c, err)
			return
		}
		_ = c.Error(err)
		return
	}

	view, err := action(c.Request.Context(), ws.Editor)
	if err != nil {
		_ = c.Error(err)
		if response.WantsJSON(c) {
			response.Error(c, err)
			return
		}
		if needsNotice(err) {
			h.notifications.Notify(ws.ID, models.NotificationError, appErrors.FromError(err).Message)
		}
		response.SeeOther(c, schedulePath)
		return
	}

	if response.WantsJSON(c) {
		response.JSON(c, http.StatusOK, view)
		return
	}
	response.SeeOther(c, schedulePath)
}

// needsNotice reports whether err was rejected before reaching the backend.
// Backend failures are announced by the editor itself.
func needsNotice(err error) bool {
	return errors.Is(err, appErrors.ErrValidation) ||
		errors.Is(err, appErrors.ErrInvalidTransition) ||
		errors.Is(err, appErrors.ErrConflict)
}

// Export godoc
// @Summary Download the schedule grid
// @Tags Schedule
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv (default), pdf or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	view, err := h.prepare(c, ws)
	if err != nil {
		_ = c.Error(err)
		return
	}
	file, err := h.exports.Export(view, models.ExportFormat(c.DefaultQuery("format", string(models.ExportCSV))))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Content-Disposition", attachmentDisposition(file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// attachmentDisposition quotes filename so identifiers from the token cannot
// break out of the header value.
func attachmentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}
