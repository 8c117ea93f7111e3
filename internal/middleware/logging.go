package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"finanzas/internal/logger"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
)

// RequestLogging returns a Gin middleware that logs each request with a unique
// request ID, method, path, status code, latency, and client IP using Zap.
// An incoming X-Request-ID is reused when it is a valid UUID.
func RequestLogging() gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		fields := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID := c.GetString(ContextUserID); userID != "" {
			fields = append(fields, "user_id", userID)
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Errorw("request", fields...)
		case status >= 400:
			log.Warnw("request", fields...)
		default:
			log.Infow("request", fields...)
		}
	}
}
