package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marinerefuge/backend/internal/health"
)

// HealthHandler /health 概要
type HealthHandler struct {
	checker *health.Checker
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(checker *health.Checker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Summary GET /health
//
// 进程存活即返回 200，依赖状态体现在 status 与 checks 字段中。
func (h *HealthHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.checker.CheckHealth())
}
