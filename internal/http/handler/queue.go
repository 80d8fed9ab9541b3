package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mira.app/federation/internal/http/dto"
	"mira.app/federation/internal/service"
)

type QueueHandler struct {
	service service.QueueService
}

func NewQueueHandler(service service.QueueService) *QueueHandler {
	return &QueueHandler{service: service}
}

// Rebuild rebuilds the review queue synchronously.
func (h *QueueHandler) Rebuild(c *gin.Context) {
	ctx := c.Request.Context()

	snap, err := h.service.Rebuild(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to rebuild queue", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: dto.ErrInternal, Message: err.Error()})
		return
	}

	resp := dto.RebuildResponse{Status: "queued", Count: snap.Total}
	if len(snap.Items) > 0 {
		first := snap.Items[0].Key
		resp.First = &first
	}
	c.JSON(http.StatusOK, resp)
}

func (h *QueueHandler) Snapshot(c *gin.Context) {
	ctx := c.Request.Context()

	snap, err := h.service.Snapshot(ctx)
	if err != nil {
		if errors.Is(err, service.ErrSnapshotNotFound) {
			abortWith(c, http.StatusNotFound, dto.ErrNotFound, "run GET /queue/patches first")
			return
		}
		slog.ErrorContext(ctx, "failed to read queue snapshot", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: dto.ErrInternal, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, snap)
}
