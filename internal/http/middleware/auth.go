package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mira.app/federation/internal/http/dto"
)

// RequireBearer guards write routes with a shared dispatch token. An empty
// token disables the check.
func RequireBearer(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
				Error: dto.ErrForbidden,
				Hint:  "send Authorization: Bearer <DISPATCH_TOKEN>",
			})
			return
		}
		c.Next()
	}
}
