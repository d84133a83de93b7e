package middleware

import (
	"fmt"
	"net/http"

	"foodgram/cache"
	"foodgram/helper"
	"foodgram/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit throttles callers per user, or per client IP for anonymous
// requests. It must run after Authenticate.
func RateLimit(limiter cache.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if identity := helper.Identity(c); !identity.IsAnonymous() {
			key = fmt.Sprintf("user:%d", identity.UserID)
		}

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			zap.L().Warn("rate limiter unavailable", zap.String("backend", limiter.Name()), zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			metrics.RateLimitRejections.WithLabelValues(limiter.Name()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":         http.StatusTooManyRequests,
				"code_type":    "throttled",
				"code_message": "Request was throttled.",
				"errors":       gin.H{},
			})
			return
		}
		c.Next()
	}
}
