package controllers

import (
	"net/http"
)

// AdminController 系统管理控制器
type AdminController struct {
	BaseController
}

// Status 系统组件健康状态
func (c *AdminController) Status() {
	if _, ok := c.requireRole("admin"); !ok {
		return
	}
	c.JSONSuccess(registry.Admin.GetSystemStatus(c.Ctx.Request.Context()))
}

// Backup 导出知识库快照
func (c *AdminController) Backup() {
	if _, ok := c.requireRole("admin"); !ok {
		return
	}

	result, err := registry.Admin.BackupKnowledgeBase(c.Ctx.Request.Context())
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(result)
}

// ListUsers 获取用户列表
func (c *AdminController) ListUsers() {
	if _, ok := c.requireRole("admin"); !ok {
		return
	}

	page, err := c.GetInt("page", 1)
	if err != nil || page <= 0 {
		page = 1
	}
	limit, err := c.GetInt("limit", 20)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	users, total, err := registry.User.List(c.Ctx.Request.Context(), page, limit)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// SetUserActive 启用或禁用用户
func (c *AdminController) SetUserActive() {
	if _, ok := c.requireRole("admin"); !ok {
		return
	}
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}
	active, err := c.GetBool("active", true)
	if err != nil {
		c.JSONError(http.StatusBadRequest, "invalid active flag")
		return
	}

	if err := registry.User.SetActive(c.Ctx.Request.Context(), id, active); err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"message": "user updated"})
}
