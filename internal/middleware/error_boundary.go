package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/cbdms-web/pkg/errors"
	"github.com/noah-isme/cbdms-web/pkg/response"
)

// ErrorTemplate is the HTML template rendered for unhandled errors.
const ErrorTemplate = "error.html"

// ErrorBoundary renders the last error a handler attached with c.Error when
// nothing has been written yet. JSON clients receive the response envelope,
// browsers the error page.
func ErrorBoundary(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		appErr := appErrors.FromError(last.Err)
		if appErr.Status >= http.StatusInternalServerError || errors.Is(appErr, appErrors.ErrUpstreamUnavailable) {
			logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(last.Err))
		}

		if response.WantsJSON(c) {
			response.Error(c, appErr)
			return
		}
		c.HTML(appErr.Status, ErrorTemplate, gin.H{
			"Title":   http.StatusText(appErr.Status),
			"Status":  appErr.Status,
			"Code":    appErr.Code,
			"Message": appErr.Message,
		})
	}
}
