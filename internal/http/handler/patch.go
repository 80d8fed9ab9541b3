package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mira.app/federation/internal/http/dto"
	"mira.app/federation/internal/service"
)

type PatchHandler struct {
	service service.PatchService
}

func NewPatchHandler(service service.PatchService) *PatchHandler {
	return &PatchHandler{service: service}
}

// Save stores a proposal produced by POST /mirror/propose.
func (h *PatchHandler) Save(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := c.GetRawData()
	if err != nil || !json.Valid(body) {
		abortWith(c, http.StatusBadRequest, dto.ErrInvalidJSON, "body must be valid JSON")
		return
	}

	var proposal map[string]json.RawMessage
	if err := json.Unmarshal(body, &proposal); err != nil || proposal == nil {
		abortWith(c, http.StatusBadRequest, dto.ErrInvalidProposal, "body must be a patch_proposal object")
		return
	}

	res, err := h.service.Save(ctx, proposal)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidProposal):
			abortWith(c, http.StatusBadRequest, dto.ErrInvalidProposal, "field 'type' must be 'patch_proposal'")
		case errors.Is(err, service.ErrInvalidTargetFile):
			abortWith(c, http.StatusBadRequest, dto.ErrInvalidTargetFile, "field 'target_file' (string) is missing")
		case errors.Is(err, service.ErrEmptyChanges):
			abortWith(c, http.StatusBadRequest, dto.ErrEmptyChanges, "list 'changes' is empty")
		default:
			slog.ErrorContext(ctx, "failed to save proposal", "error", err)
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: dto.ErrInternal, Message: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, dto.SaveResponse{Status: "stored", Key: res.Key, Bytes: res.Bytes})
}
