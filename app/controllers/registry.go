package controllers

import (
	"github.com/hrhub/backend-go/internal/services"
)

// Services 控制器依赖的服务集合
// Beego按请求反射创建控制器实例，服务通过包级注册表获取。
type Services struct {
	Query     *services.QueryService
	Policy    *services.PolicyService
	Form      *services.FormService
	User      *services.UserService
	Analytics *services.AnalyticsService
	Admin     *services.AdminService
}

var registry Services

// Init 注册控制器使用的服务实例，必须在路由注册前调用
func Init(svcs Services) {
	registry = svcs
}
