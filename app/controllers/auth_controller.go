package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/hrhub/backend-go/internal/auth"
	"github.com/hrhub/backend-go/internal/services"
)

// AuthController 用户认证控制器
type AuthController struct {
	BaseController
}

// Register 注册新用户
func (c *AuthController) Register() {
	var req services.RegisterRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	// 管理角色只能由管理员分配
	if req.Role != "" && req.Role != "employee" {
		if _, ok := c.requireRole("admin"); !ok {
			return
		}
	}

	user, err := registry.User.Register(c.Ctx.Request.Context(), req)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    user,
	})
}

// Login 登录并签发令牌
func (c *AuthController) Login() {
	var req services.LoginRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := registry.User.Login(c.Ctx.Request.Context(), req)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(result)
}

// Refresh 刷新令牌
func (c *AuthController) Refresh() {
	tokenString, err := auth.ExtractTokenFromHeader(c.Ctx.Input.Header("Authorization"))
	if err != nil {
		c.JSONError(http.StatusUnauthorized, "missing or malformed token")
		return
	}

	token, err := registry.User.RefreshToken(tokenString)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"token": token})
}

// Me 获取当前用户信息
func (c *AuthController) Me() {
	claims, ok := c.requireClaims()
	if !ok {
		return
	}

	user, err := registry.User.Get(c.Ctx.Request.Context(), claims.UserID)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(user)
}
