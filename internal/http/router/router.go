package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mira.app/federation/internal/http/dto"
	"mira.app/federation/internal/http/handler"
	"mira.app/federation/internal/http/middleware"
	"mira.app/federation/internal/service"
)

type RouterConfig struct {
	// DispatchToken guards write routes when non-empty.
	DispatchToken string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.ErrorResponse{Error: dto.ErrMethodNotAllowed})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: dto.ErrNotFound})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	guard := middleware.RequireBearer(cfg.DispatchToken)

	evaluateHandler := handler.NewEvaluateHandler(services.Evaluations())
	cycleHandler := handler.NewCycleHandler(services.Cycles())
	FederationRouter(router.Group("/federation"), guard, evaluateHandler, cycleHandler)

	mirrorHandler := handler.NewMirrorHandler(services.Patches())
	MirrorRouter(router.Group("/mirror"), mirrorHandler)

	patchHandler := handler.NewPatchHandler(services.Patches())
	PatchRouter(router.Group("/patches"), guard, patchHandler)

	queueHandler := handler.NewQueueHandler(services.Queue())
	QueueRouter(router.Group("/queue"), guard, queueHandler)
}
