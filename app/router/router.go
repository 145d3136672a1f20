package router

import (
	"github.com/beego/beego/v2/server/web"

	"github.com/hrhub/backend-go/app/controllers"
	"github.com/hrhub/backend-go/app/middleware"
)

// Init registers all routes. Must be called after bootstrap.
func Init() {
	web.Router("/", &controllers.RootController{}, "get:Index")
	web.Router("/health", &controllers.HealthController{}, "get:Health")
	web.Router("/metrics", &controllers.MetricsController{}, "get:Metrics")

	web.InsertFilter("/*", web.BeforeRouter, middleware.CORSMiddleware)
	web.InsertFilter("/api/*", web.BeforeRouter, middleware.AttachClaims)

	// 认证路由
	authController := &controllers.AuthController{}
	web.Router("/api/auth/register", authController, "post:Register")
	web.Router("/api/auth/login", authController, "post:Login")
	web.Router("/api/auth/refresh", authController, "post:Refresh")
	web.Router("/api/auth/me", authController, "get:Me")

	// 问答路由
	queryController := &controllers.QueryController{}
	web.Router("/api/query", queryController, "post:Ask")
	web.Router("/api/query/feedback", queryController, "post:Feedback")
	web.Router("/api/query/history", queryController, "get:History")

	// 政策路由
	// 注意：具体路由必须在参数路由之前，否则/upload会被:id匹配
	policyController := &controllers.PolicyController{}
	web.Router("/api/policies", policyController, "get:List;post:Create")
	web.Router("/api/policies/upload", policyController, "post:Upload")
	web.Router("/api/policies/reindex", policyController, "post:Reindex")
	web.Router("/api/policies/:id", policyController, "get:Get;put:Update;delete:Delete")
	web.Router("/api/policies/:id/forms", policyController, "get:GetForms")

	// 表单路由
	formController := &controllers.FormController{}
	web.Router("/api/forms", formController, "get:List;post:Create")
	web.Router("/api/forms/search", formController, "get:Search")
	web.Router("/api/forms/:id", formController, "get:Get;put:Update;delete:Delete")
	web.Router("/api/forms/:id/policies/:policy_id", formController, "post:LinkPolicy;delete:UnlinkPolicy")

	// 统计路由
	analyticsController := &controllers.AnalyticsController{}
	web.Router("/api/analytics/usage", analyticsController, "get:Usage")
	web.Router("/api/analytics/recent", analyticsController, "get:Recent")
	web.Router("/api/analytics/feedback", analyticsController, "get:Feedback")

	// 管理路由
	adminController := &controllers.AdminController{}
	web.Router("/api/admin/status", adminController, "get:Status")
	web.Router("/api/admin/backup", adminController, "post:Backup")
	web.Router("/api/admin/users", adminController, "get:ListUsers")
	web.Router("/api/admin/users/:id/active", adminController, "put:SetUserActive")
}
