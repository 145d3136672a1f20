package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/hrhub/backend-go/internal/services"
)

// PolicyController 政策管理控制器
type PolicyController struct {
	BaseController
}

// List 获取政策列表
func (c *PolicyController) List() {
	page, err := c.GetInt("page", 1)
	if err != nil || page <= 0 {
		page = 1
	}
	limit, err := c.GetInt("limit", 20)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	category := c.GetString("category")
	activeOnly, _ := c.GetBool("active_only", true)

	policies, total, err := registry.Policy.List(c.Ctx.Request.Context(), category, activeOnly, page, limit)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"policies": policies,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// Get 获取政策详情
func (c *PolicyController) Get() {
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}
	policy, err := registry.Policy.Get(c.Ctx.Request.Context(), id)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(policy)
}

// Create 创建纯文本政策
func (c *PolicyController) Create() {
	if _, ok := c.requireRole("hr", "admin"); !ok {
		return
	}

	var req services.CreatePolicyRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	policy, err := registry.Policy.Create(c.Ctx.Request.Context(), req)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    policy,
	})
}

// Upload 上传政策文档文件
func (c *PolicyController) Upload() {
	if _, ok := c.requireRole("hr", "admin"); !ok {
		return
	}

	file, header, err := c.GetFile("file")
	if err != nil {
		c.JSONError(http.StatusBadRequest, "document file is required")
		return
	}
	defer file.Close()

	req := services.CreatePolicyRequest{
		Title:       c.GetString("title"),
		Category:    c.GetString("category"),
		Description: c.GetString("description"),
	}
	if req.Title == "" {
		req.Title = header.Filename
	}

	policy, err := registry.Policy.Upload(c.Ctx.Request.Context(), req, file, header)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    policy,
	})
}

// Update 更新政策
func (c *PolicyController) Update() {
	if _, ok := c.requireRole("hr", "admin"); !ok {
		return
	}
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}

	var req services.UpdatePolicyRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	policy, err := registry.Policy.Update(c.Ctx.Request.Context(), id, req)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(policy)
}

// Delete 删除政策
func (c *PolicyController) Delete() {
	if _, ok := c.requireRole("hr", "admin"); !ok {
		return
	}
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}

	if err := registry.Policy.Delete(c.Ctx.Request.Context(), id); err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"message": "policy deleted"})
}

// GetForms 获取政策关联的表单
func (c *PolicyController) GetForms() {
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}
	forms, err := registry.Form.GetByPolicy(c.Ctx.Request.Context(), id)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"forms": forms})
}

// Reindex 全量重建向量索引
func (c *PolicyController) Reindex() {
	if _, ok := c.requireRole("admin"); !ok {
		return
	}

	count, err := registry.Policy.ReindexAll(c.Ctx.Request.Context())
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"message": "reindex completed",
		"entries": count,
	})
}
