package middleware

import (
	"restaurant-crm-api/apperr"

	"github.com/gin-gonic/gin"
)

// Abort stops the chain and writes err as the error envelope. The error is
// recorded on the context so RequestLogger can report its cause.
func Abort(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"status_code": status,
		"error":       kind,
		"message":     apperr.MessageOf(err),
		"success":     false,
	})
}
