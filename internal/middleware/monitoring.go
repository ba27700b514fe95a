package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPRecorder 记录 HTTP 请求指标，*monitoring.Metrics 满足
type HTTPRecorder interface {
	RecordHTTPRequest(method, route, statusCode string, duration time.Duration, responseSize int)
}

// HTTPMetrics HTTP 指标中间件
//
// 未匹配路由统一记为 "unmatched"，避免任意路径撑大标签基数。
func HTTPMetrics(recorder HTTPRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}

		recorder.RecordHTTPRequest(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
			size,
		)
	}
}
