package controllers

// AnalyticsController 统计分析控制器
type AnalyticsController struct {
	BaseController
}

// Usage 问答使用统计
func (c *AnalyticsController) Usage() {
	if _, ok := c.requireRole("hr", "admin"); !ok {
		return
	}

	stats, err := registry.Analytics.GetUsageStats(c.Ctx.Request.Context())
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(stats)
}

// Recent 最近的问答记录
func (c *AnalyticsController) Recent() {
	if _, ok := c.requireRole("hr", "admin"); !ok {
		return
	}

	limit, err := c.GetInt("limit", 20)
	if err != nil {
		limit = 20
	}
	records, err := registry.Analytics.GetRecentQueries(c.Ctx.Request.Context(), limit)
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"queries": records})
}

// Feedback 反馈统计
func (c *AnalyticsController) Feedback() {
	if _, ok := c.requireRole("hr", "admin"); !ok {
		return
	}

	summary, err := registry.Analytics.GetFeedbackSummary(c.Ctx.Request.Context())
	if err != nil {
		c.HandleError(err)
		return
	}
	c.JSONSuccess(summary)
}
