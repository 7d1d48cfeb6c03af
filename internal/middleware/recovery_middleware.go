// internal/middleware/recovery_middleware.go
package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos-service/internal/utils"
)

// RecoveryMiddleware turns a handler panic into a 500 API response
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		utils.LoggerWithRequestID(logger, utils.GetRequestID(c)).Error("Handler panicked",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Stack("stacktrace"),
		)

		utils.ErrorResponseWithCode(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR",
			"Internal server error", fmt.Errorf("unexpected failure while handling %s", c.Request.URL.Path))
		c.Abort()
	})
}
