package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/cbdms-web/pkg/middleware/requestid"
)

// Audit creates a middleware that records an audit entry after successful
// requests that change backend data.
func Audit(logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	auditLog := logger.Named("audit")
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 || len(c.Errors) > 0 {
			return
		}

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("resource", resource),
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.GetHeader("User-Agent")),
		}
		if sess, ok := GetSession(c); ok {
			fields = append(fields, zap.String("user_id", sess.UserID), zap.String("role", string(sess.Role)))
		}
		if ws := GetWorkspace(c); ws != nil {
			fields = append(fields, zap.String("schedule_id", ws.Editor.View().ScheduleID))
		}
		if id := requestid.Value(c); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		auditLog.Info("audit", fields...)
	}
}
