package controllers

import (
	"net/http"
	"time"
)

// RootController 根路径控制器
type RootController struct {
	BaseController
}

// Index 服务标识
func (c *RootController) Index() {
	c.JSON(http.StatusOK, map[string]interface{}{
		"service": "hrhub-backend",
		"status":  "running",
	})
}

// HealthController 健康检查控制器
type HealthController struct {
	BaseController
}

// Health 存活检查
func (c *HealthController) Health() {
	c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
