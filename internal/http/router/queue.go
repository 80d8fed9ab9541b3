package router

import (
	"github.com/gin-gonic/gin"

	"mira.app/federation/internal/http/handler"
)

// QueueRouter: GET /queue/patches rebuilds (guarded), the snapshot read is public.
func QueueRouter(rg *gin.RouterGroup, guard gin.HandlerFunc, h *handler.QueueHandler) {
	rg.GET("/patches", guard, h.Rebuild)
	rg.GET("/patches/snapshot", h.Snapshot)
}
