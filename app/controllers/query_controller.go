package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/hrhub/backend-go/internal/services"
)

// QueryController 问答控制器
type QueryController struct {
	BaseController
}

// Ask 提交问题
func (c *QueryController) Ask() {
	var req services.AskRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	// 已登录用户以工号记录提问人
	if claims, ok := c.currentClaims(); ok && req.UserID == "" {
		req.UserID = claims.EmployeeID
	}

	record, err := registry.Query.Ask(c.Ctx.Request.Context(), req)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(record)
}

// Feedback 提交反馈
func (c *QueryController) Feedback() {
	var req services.FeedbackRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	if err := registry.Query.SubmitFeedback(c.Ctx.Request.Context(), req); err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"message": "feedback recorded"})
}

// History 获取问答历史
func (c *QueryController) History() {
	userID := c.GetString("user_id")
	if userID == "" {
		if claims, ok := c.currentClaims(); ok {
			userID = claims.EmployeeID
		}
	}
	limit, err := c.GetInt("limit", 20)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	history, err := registry.Query.GetHistory(c.Ctx.Request.Context(), userID, limit)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"history": history,
		"total":   len(history),
	})
}
