package httpgw

import (
	"time"

	"github.com/gin-gonic/gin"

	"wolfquant/internal/logger"
	"wolfquant/internal/uuid"
)

// RequestLogging tags each request with an id and logs method, path,
// status, and latency on completion.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		logger.Get().Infow("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
