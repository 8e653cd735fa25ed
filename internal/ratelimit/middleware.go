package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware rejects requests from clients over their per-minute budget.
func Middleware(limiter *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
