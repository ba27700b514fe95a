package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID 请求 ID 响应头
	HeaderRequestID = "X-Request-ID"
	// ContextRequestID gin 上下文中的请求 ID 键
	ContextRequestID = "requestID"

	maxRequestIDLength = 128
)

// RequestID 为每个请求分配 ID
//
// 客户端传入的 X-Request-ID 在长度合法时沿用，否则生成新的 UUID。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		c.Set(ContextRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID 从上下文读取请求 ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
