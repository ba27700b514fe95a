package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// DefaultBodyLimit 表单接口的请求体上限
const DefaultBodyLimit = 1 << 20 // 1MB

// BodySizeLimit 限制请求体大小的中间件
//
// Content-Length 超限时直接拒绝；未声明长度的请求在读取时由 MaxBytesReader 截断，
// 绑定 JSON 失败后由 handler 返回 400。
func BodySizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error":   "Request body too large",
				"details": fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytes),
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Header("X-Max-Body-Size", strconv.FormatInt(maxBytes, 10))

		c.Next()
	}
}
