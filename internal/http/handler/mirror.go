package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"

	"mira.app/federation/internal/http/dto"
	"mira.app/federation/internal/mirror"
	"mira.app/federation/internal/model"
	"mira.app/federation/internal/service"
)

type MirrorHandler struct {
	service service.PatchService
	schema  []byte
}

func NewMirrorHandler(service service.PatchService) *MirrorHandler {
	return &MirrorHandler{
		service: service,
		schema:  proposalSchema(),
	}
}

// proposalSchema is the JSON schema that POST /patches bodies follow.
func proposalSchema() []byte {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := r.Reflect(&model.PatchProposal{})
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		panic(err)
	}
	return b
}

func (h *MirrorHandler) Propose(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid propose request", "error", err)
		abortWith(c, http.StatusBadRequest, dto.ErrInvalidJSON, "body must be JSON: {\"code\": \"...\"}")
		return
	}

	code, _ := req.Code.(string)
	target, _ := req.TargetPath.(string)

	proposal, err := h.service.Propose(ctx, code, target)
	if err != nil {
		if errors.Is(err, mirror.ErrInvalidInput) {
			abortWith(c, http.StatusBadRequest, dto.ErrInvalidInput, "field 'code' (non-empty string) is required")
			return
		}
		slog.ErrorContext(ctx, "failed to build proposal", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: dto.ErrInternal, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, proposal)
}

func (h *MirrorHandler) Schema(c *gin.Context) {
	c.Data(http.StatusOK, "application/schema+json", h.schema)
}
