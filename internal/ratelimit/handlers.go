package ratelimit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HandleRateLimitStatus reports the configured budgets and limiter state
func (rl *RateLimiter) HandleRateLimitStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{
			"ip": c.ClientIP(),
			"limits": gin.H{
				"ip_per_minute": gin.H{
					"limit":  rl.config.IPLimit,
					"period": "1 minute",
				},
				"stream_per_minute": gin.H{
					"limit":  rl.config.StreamLimit,
					"period": "1 minute",
				},
			},
			"limiter_stats": rl.GetStats(),
			"timestamp":     time.Now().Format(time.RFC3339),
		}

		if keys, err := rl.KeyCount(c.Request.Context()); err == nil {
			status["total_keys"] = keys
		}

		if rl.metrics != nil {
			status["metrics"] = rl.metrics.GetRateLimitStats()
		}

		c.JSON(http.StatusOK, status)
	}
}

// HandleInvalidateIP clears every budget held for the :ip path parameter
func (rl *RateLimiter) HandleInvalidateIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.Param("ip")
		if ip == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "IP address is required",
			})
			return
		}

		removed, err := rl.InvalidateIP(c.Request.Context(), ip)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "IP rate limits invalidated successfully",
			"ip":        ip,
			"removed":   removed,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}
