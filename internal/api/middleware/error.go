package middleware

import (
	"net/http"

	"github.com/dailab/elvis-go/internal/api/models"
	"github.com/gin-gonic/gin"
)

// ErrorHandler middleware recovers panics into the same ErrorResponse
// envelope the scenario/policy handlers use for ordinary request errors, so
// a caller never has to special-case a panic-recovered response shape.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		message := "An unexpected error occurred"
		if err, ok := recovered.(string); ok {
			message = err
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INTERNAL_ERROR", Message: message},
		})
		c.Abort()
	})
}
