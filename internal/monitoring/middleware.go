package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records request metrics and logs every request.
func Middleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), duration)
		logger.RequestLogger(c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.Writer.Status(), duration)
	}
}
