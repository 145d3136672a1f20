package controllers

import (
	"net/http"
	"strconv"

	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"

	"github.com/hrhub/backend-go/internal/auth"
	apperrors "github.com/hrhub/backend-go/internal/errors"
	"github.com/hrhub/backend-go/internal/logger"
)

// BaseController provides helpers for consistent JSON responses.
type BaseController struct {
	web.Controller
}

// JSON writes a JSON response with the supplied HTTP status code.
func (c *BaseController) JSON(status int, payload interface{}) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = payload
	c.ServeJSON()
}

// JSONSuccess writes a standard success envelope.
func (c *BaseController) JSONSuccess(data interface{}) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// JSONError writes an error envelope with message.
func (c *BaseController) JSONError(status int, message string) {
	c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// HandleError 统一错误响应
// AppError按其携带的HTTP状态码返回，其余错误一律500。
func (c *BaseController) HandleError(err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		c.JSON(appErr.HTTPCode, map[string]interface{}{
			"success": false,
			"code":    appErr.Code,
			"error":   appErr.Message,
		})
		return
	}
	logger.Error("unhandled error",
		zap.String("path", c.Ctx.Request.RequestURI),
		zap.Error(err))
	c.JSONError(http.StatusInternalServerError, "internal server error")
}

// mustParseUintParam 解析URL参数为uint
func (c *BaseController) mustParseUintParam(key string) (uint, bool) {
	value := c.GetString(key)
	if value == "" {
		c.JSONError(http.StatusBadRequest, "missing required parameter")
		return 0, false
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		c.JSONError(http.StatusBadRequest, "invalid parameter format")
		return 0, false
	}
	return uint(id), true
}

// currentClaims 获取认证中间件写入的JWT声明
func (c *BaseController) currentClaims() (*auth.JWTClaims, bool) {
	claims, ok := c.Ctx.Input.GetData("claims").(*auth.JWTClaims)
	return claims, ok
}

// requireClaims 获取JWT声明，未认证时返回401
func (c *BaseController) requireClaims() (*auth.JWTClaims, bool) {
	claims, ok := c.currentClaims()
	if !ok {
		c.JSONError(http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return claims, true
}

// requireRole 校验当前用户角色
func (c *BaseController) requireRole(roles ...string) (*auth.JWTClaims, bool) {
	claims, ok := c.requireClaims()
	if !ok {
		return nil, false
	}
	for _, role := range roles {
		if claims.Role == role {
			return claims, true
		}
	}
	c.JSONError(http.StatusForbidden, "insufficient permissions")
	return nil, false
}
