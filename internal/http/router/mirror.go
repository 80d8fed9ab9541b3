package router

import (
	"github.com/gin-gonic/gin"

	"mira.app/federation/internal/http/handler"
)

func MirrorRouter(rg *gin.RouterGroup, h *handler.MirrorHandler) {
	rg.POST("/propose", h.Propose)
	rg.GET("/schema", h.Schema)
}

func PatchRouter(rg *gin.RouterGroup, guard gin.HandlerFunc, h *handler.PatchHandler) {
	rg.POST("", guard, h.Save)
}
