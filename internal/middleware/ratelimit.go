package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marinerefuge/backend/internal/ratelimit"
)

// RateLimitRecorder 记录被限流的请求
type RateLimitRecorder interface {
	RecordRateLimitBlock(route string)
}

// RateLimit 按 路由+客户端 IP 限流
//
// 限流器出错时放行请求并记录日志。
func RateLimit(limiter ratelimit.Limiter, log *zap.Logger, recorder RateLimitRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		key := route + "|" + c.ClientIP()

		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request",
				zap.String("route", route),
				zap.String("ip", c.ClientIP()),
				zap.Error(err),
			)
		}

		reset := ceilSeconds(decision.ResetAfter)
		if decision.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			c.Header("X-RateLimit-Reset", strconv.Itoa(reset))
		}

		if !decision.Allowed {
			if recorder != nil {
				recorder.RecordRateLimitBlock(route)
			}
			log.Info("rate limit exceeded",
				zap.String("route", route),
				zap.String("ip", c.ClientIP()),
			)

			c.Header("Retry-After", strconv.Itoa(max(reset, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Too many requests, please try again later",
			})
			return
		}

		c.Next()
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
