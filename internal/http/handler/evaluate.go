package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mira.app/federation/internal/http/dto"
	"mira.app/federation/internal/resonance"
	"mira.app/federation/internal/service"
)

type EvaluateHandler struct {
	service service.EvaluationService
}

func NewEvaluateHandler(service service.EvaluationService) *EvaluateHandler {
	return &EvaluateHandler{service: service}
}

// Evaluate scores a batch of agent responses. The body is either
// {"responses": [...]} or a bare array; any other JSON value is an empty batch.
func (h *EvaluateHandler) Evaluate(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: dto.ErrInternal, Message: err.Error()})
		return
	}

	responses, err := resonance.DecodeBatch(body)
	if err != nil {
		slog.WarnContext(ctx, "invalid evaluate body", "error", err)
		abortWith(c, http.StatusBadRequest, dto.ErrInvalidJSON, "body must be JSON: {\"responses\": [...]}")
		return
	}

	c.JSON(http.StatusOK, h.service.Evaluate(ctx, responses))
}

// ListReports returns stored evaluation report keys, newest first.
func (h *EvaluateHandler) ListReports(c *gin.Context) {
	ctx := c.Request.Context()

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			abortWith(c, http.StatusBadRequest, dto.ErrInvalidInput, "limit must be a positive integer")
			return
		}
		limit = n
	}

	refs, err := h.service.ListReports(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list reports", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: dto.ErrInternal, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ReportsResponse{Count: len(refs), Reports: refs})
}
