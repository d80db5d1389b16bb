package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neurobridge/portal-api/internal/apperr"
)

// respondError translates a service error into its transport status and a
// stable error_code clients can branch on. Only unclassified errors (500s)
// are logged at error level; taxonomy errors are expected traffic.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status := apperr.HTTPStatus(err)
	code := "internal"
	if k, ok := apperr.KindOf(err); ok {
		code = k.String()
	}

	if status >= 500 {
		logger.Error(op, zap.Error(err))
	} else {
		logger.Debug(op, zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error":      apperr.Message(err),
		"error_code": code,
	})
}
