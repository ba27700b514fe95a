package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一成功响应结构
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	// Warning 请求已成功但附带的提示，例如欢迎邮件未能发出
	Warning string `json:"warning,omitempty"`
}

// ErrorResponse 统一错误响应结构
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ListResponse 分页列表响应
type ListResponse struct {
	Success bool  `json:"success"`
	Data    any   `json:"data"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"hasMore"`
}

// Success 成功响应（200）
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// SuccessWithMsg 成功响应（自定义状态码与消息）
func SuccessWithMsg(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Response{Success: true, Message: msg, Data: data})
}

// SuccessWithWarning 成功响应，附带警告
func SuccessWithWarning(c *gin.Context, status int, msg, warning string, data any) {
	c.JSON(status, Response{Success: true, Message: msg, Data: data, Warning: warning})
}

// List 分页列表响应（200）
func List(c *gin.Context, data any, total int64, hasMore bool) {
	c.JSON(http.StatusOK, ListResponse{Success: true, Data: data, Total: total, HasMore: hasMore})
}

// Fail 错误响应
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorResponse{Error: msg})
}

// FailWithDetails 错误响应，附带细节
func FailWithDetails(c *gin.Context, status int, msg, details string) {
	c.JSON(status, ErrorResponse{Error: msg, Details: details})
}

// BadRequest 请求参数错误（400）
func BadRequest(c *gin.Context, msg string) {
	Fail(c, http.StatusBadRequest, msg)
}

// NotFound 资源不存在（404）
func NotFound(c *gin.Context, msg string) {
	Fail(c, http.StatusNotFound, msg)
}

// InternalError 服务器内部错误（500）
func InternalError(c *gin.Context, msg string) {
	Fail(c, http.StatusInternalServerError, msg)
}
