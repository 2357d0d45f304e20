package middleware

import (
	"log/slog"
	"time"

	"portfolio-contact-backend/internal/delivery/http/response"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs each request once it has been served
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		reqID, _ := c.Get(response.RequestIDKey)
		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"request_id", reqID,
		)
	}
}
