package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/hrhub/backend-go/internal/services"
)

// FormController 表单管理控制器
type FormController struct {
	BaseController
}

// List 获取表单列表
func (c *FormController) List() {
	category := c.GetString("category")
	activeOnly, _ := c.GetBool("active_only", true)

	forms, err := registry.Form.List(c.Ctx.Request.Context(), category, activeOnly)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"forms": forms})
}

// Search 按关键字检索表单
func (c *FormController) Search() {
	forms, err := registry.Form.Search(c.Ctx.Request.Context(), c.GetString("q"))
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"forms": forms})
}

// Get 获取表单详情
func (c *FormController) Get() {
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}
	form, err := registry.Form.Get(c.Ctx.Request.Context(), id)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(form)
}

// Create 创建表单
func (c *FormController) Create() {
	if _, ok := c.requireRole("hr", "admin"); !ok {
		return
	}

	var req services.CreateFormRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	form, err := registry.Form.Create(c.Ctx.Request.Context(), req)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    form,
	})
}

// Update 更新表单
func (c *FormController) Update() {
	if _, ok := c.requireRole("hr", "admin"); !ok {
		return
	}
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}

	var req services.UpdateFormRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	form, err := registry.Form.Update(c.Ctx.Request.Context(), id, req)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(form)
}

// Delete 删除表单
func (c *FormController) Delete() {
	if _, ok := c.requireRole("hr", "admin"); !ok {
		return
	}
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}

	if err := registry.Form.Delete(c.Ctx.Request.Context(), id); err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"message": "form deleted"})
}

// LinkPolicy 关联表单到政策
func (c *FormController) LinkPolicy() {
	if _, ok := c.requireRole("hr", "admin"); !ok {
		return
	}
	formID, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}
	policyID, ok := c.mustParseUintParam(":policy_id")
	if !ok {
		return
	}

	relevance, err := c.GetFloat("relevance", 1.0)
	if err != nil {
		relevance = 1.0
	}
	if err := registry.Form.LinkPolicy(c.Ctx.Request.Context(), policyID, formID, relevance); err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"message": "form linked"})
}

// UnlinkPolicy 解除表单与政策的关联
func (c *FormController) UnlinkPolicy() {
	if _, ok := c.requireRole("hr", "admin"); !ok {
		return
	}
	formID, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}
	policyID, ok := c.mustParseUintParam(":policy_id")
	if !ok {
		return
	}

	if err := registry.Form.UnlinkPolicy(c.Ctx.Request.Context(), policyID, formID); err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"message": "form unlinked"})
}
