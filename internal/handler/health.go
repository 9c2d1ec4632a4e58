package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	ready  func() bool
	models []string
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(ready func() bool, models []string) *HealthHandler {
	return &HealthHandler{ready: ready, models: models}
}

// Health 健康检查
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready 就绪检查
// 网关凭证缺失时返回 503，不暴露凭证本身
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.ready != nil && !h.ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":      "not_ready",
			"api_key_set": false,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ready",
		"api_key_set": true,
		"models":      h.models,
	})
}
