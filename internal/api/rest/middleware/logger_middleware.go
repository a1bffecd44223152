package middleware

import (
	"time"

	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// LoggerMiddleware создает middleware для логирования запросов
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()

		fields := []interface{}{
			"method", c.Request.Method,
			"uri", c.Request.RequestURI,
			"status", statusCode,
			"latency", latency.String(),
			"clientIP", c.ClientIP(),
		}

		switch {
		case statusCode >= 500:
			log.Errorw("Request completed", fields...)
		case statusCode >= 400:
			log.Warnw("Request completed", fields...)
		default:
			log.Infow("Request completed", fields...)
		}
	}
}
