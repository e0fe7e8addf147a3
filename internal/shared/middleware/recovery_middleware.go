package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/utils"
)

// RecoveryMiddleware turns handler panics into 500 error envelopes
type RecoveryMiddleware struct {
	logger          *logger.Logger
	responseHandler *utils.ResponseHandler
}

// NewRecoveryMiddleware creates a new recovery middleware
func NewRecoveryMiddleware(log *logger.Logger) *RecoveryMiddleware {
	log = log.Named("recovery")
	return &RecoveryMiddleware{
		logger:          log,
		responseHandler: utils.NewResponseHandler(log),
	}
}

// GinRecover provides Gin-compatible panic recovery middleware
func (m *RecoveryMiddleware) GinRecover(c *gin.Context) {
	defer func() {
		if err := recover(); err != nil {
			m.logger.Error(
				"Panic recovered",
				zap.Any("error", err),
				zap.String("stack", string(debug.Stack())),
				zap.String("request_id", c.GetString(ginRequestIDKey)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			)
			m.responseHandler.GinInternalError(c, fmt.Errorf("panic: %v", err))
		}
	}()

	c.Next()
}
