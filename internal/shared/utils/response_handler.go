package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"test-orchestrator/internal/shared/logger"
)

// ResponseHandler provides centralized response handling for Gin handlers
type ResponseHandler struct {
	logger *logger.Logger
}

// NewResponseHandler creates a new response handler
func NewResponseHandler(log *logger.Logger) *ResponseHandler {
	return &ResponseHandler{
		logger: log.Named("response-handler"),
	}
}

// GinJSON writes data as-is with a 200 status
func (rh *ResponseHandler) GinJSON(c *gin.Context, data interface{}) {
	RespondWithJSON(c.Writer, http.StatusOK, data)
}

// GinError sends the error envelope and aborts the chain
func (rh *ResponseHandler) GinError(c *gin.Context, message string, statusCode int) {
	RespondWithError(c.Writer, GinResponseContext(c), message, statusCode, rh.logger)
	c.Abort()
}

// GinBadRequest sends a 400 error envelope
func (rh *ResponseHandler) GinBadRequest(c *gin.Context, message string) {
	rh.GinError(c, message, http.StatusBadRequest)
}

// GinTooManyRequests sends a 429 error envelope
func (rh *ResponseHandler) GinTooManyRequests(c *gin.Context, message string) {
	rh.GinError(c, message, http.StatusTooManyRequests)
}

// GinServiceUnavailable sends a 503 error envelope
func (rh *ResponseHandler) GinServiceUnavailable(c *gin.Context, message string) {
	rh.GinError(c, message, http.StatusServiceUnavailable)
}

// GinInternalError logs err and sends a generic 500 error envelope
func (rh *ResponseHandler) GinInternalError(c *gin.Context, err error) {
	rh.logger.Error("Internal server error",
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err))
	rh.GinError(c, "Internal server error", http.StatusInternalServerError)
}
