package handler

import (
	"github.com/gin-gonic/gin"

	"mira.app/federation/internal/http/dto"
)

func abortWith(c *gin.Context, status int, code, hint string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: code, Hint: hint})
}
