package httptransport

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// bindJSON 解析请求体，空请求体视为空对象
//
// 失败时已写出响应，调用方直接返回。
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		Fail(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
		return false
	}
	BadRequest(c, MsgInvalidRequest)
	return false
}
