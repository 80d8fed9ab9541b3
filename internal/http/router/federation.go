package router

import (
	"github.com/gin-gonic/gin"

	"mira.app/federation/internal/http/handler"
	"mira.app/federation/internal/http/middleware"
)

func FederationRouter(rg *gin.RouterGroup, guard gin.HandlerFunc, h *handler.EvaluateHandler, cycles *handler.CycleHandler) {
	rg.POST("/evaluate", middleware.RequireJSON(), h.Evaluate)
	rg.GET("/reports", h.ListReports)

	rg.POST("/cycles", guard, cycles.Collect)
	rg.GET("/cycles", cycles.Recent)
}
