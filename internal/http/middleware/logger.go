package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shuttle/internal/utils"
)

// Logger writes one access log line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("module", "HTTP"),
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000.0),
			zap.String("ip", c.ClientIP()),
		}
		if uid, ok := CurrentUserID(c); ok {
			fields = append(fields, zap.Int64("user_id", uid))
		}
		switch {
		case status >= 500:
			utils.Logger().Error("request", fields...)
		case status >= 400:
			utils.Logger().Warn("request", fields...)
		default:
			utils.Logger().Info("request", fields...)
		}
	}
}
