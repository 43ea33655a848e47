package api

import (
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	AnalyticsHandler *AnalyticsHandler
}

func NewRouter(cfg *RouterConfig) *gin.Engine {
	router := gin.Default()

	v1 := router.Group("/v1/")
	registerAnalyticsRoutes(v1, cfg.AnalyticsHandler)

	return router
}

func registerAnalyticsRoutes(router *gin.RouterGroup, h *AnalyticsHandler) {
	analytics := router.Group("/analytics")
	{
		analytics.GET("/:date", h.GetAnalytics)
		analytics.GET("/:date/trends", h.GetTrends)
		analytics.GET("/:date/insights", h.GetInsights)
		analytics.GET("/:date/status", h.GetStatus)
	}
}
