package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mira.app/federation/internal/http/dto"
	"mira.app/federation/internal/service"
)

type CycleHandler struct {
	service service.CycleService
}

// NewCycleHandler accepts a nil service; the routes then answer 503.
func NewCycleHandler(service service.CycleService) *CycleHandler {
	return &CycleHandler{service: service}
}

// Collect hands an evaluation result to the autonomy cycle log.
func (h *CycleHandler) Collect(c *gin.Context) {
	ctx := c.Request.Context()
	if h.service == nil {
		abortWith(c, http.StatusServiceUnavailable, dto.ErrUnavailable, "cycle log is not configured")
		return
	}

	var req dto.CycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, dto.ErrInvalidJSON, "body must be JSON with resonance_index, mean_confidence, mean_uncertainty")
		return
	}

	event, err := h.service.Collect(ctx, service.CycleParams{
		ResonanceIndex:  req.ResonanceIndex,
		MeanConfidence:  req.MeanConfidence,
		MeanUncertainty: req.MeanUncertainty,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to log cycle event", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: dto.ErrInternal, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.CycleResponse{Status: "ok", Logged: *event})
}

func (h *CycleHandler) Recent(c *gin.Context) {
	ctx := c.Request.Context()
	if h.service == nil {
		abortWith(c, http.StatusServiceUnavailable, dto.ErrUnavailable, "cycle log is not configured")
		return
	}

	n, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || n <= 0 {
		abortWith(c, http.StatusBadRequest, dto.ErrInvalidInput, "limit must be a positive integer")
		return
	}

	events, err := h.service.Recent(ctx, n)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read cycle events", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: dto.ErrInternal, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.CyclesResponse{Events: events})
}
