package middleware

import (
	"github.com/beego/beego/v2/server/web/context"

	"github.com/hrhub/backend-go/internal/auth"
)

var jwtService *auth.JWTService

// InitAuth 设置认证过滤器使用的JWT服务
func InitAuth(svc *auth.JWTService) {
	jwtService = svc
}

// AttachClaims 解析Authorization头并把JWT声明写入请求上下文
// 令牌无效或缺失时不拦截请求，访问控制由各路由自行决定。
func AttachClaims(ctx *context.Context) {
	if jwtService == nil {
		return
	}
	tokenString, err := auth.ExtractTokenFromHeader(ctx.Input.Header("Authorization"))
	if err != nil {
		return
	}
	claims, err := jwtService.ValidateToken(tokenString)
	if err != nil {
		return
	}
	ctx.Input.SetData("claims", claims)
	ctx.Input.SetData("user_id", claims.UserID)
}
