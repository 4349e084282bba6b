package handlers

import (
	"github.com/gin-gonic/gin"

	"GemSentinel/internal/api/models"
)

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
