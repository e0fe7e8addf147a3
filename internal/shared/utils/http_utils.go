package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"test-orchestrator/internal/shared/logger"
)

// ErrorResponse is the envelope every error reply uses
type ErrorResponse struct {
	Code         int    `json:"code"`          // HTTP status code
	Status       bool   `json:"status"`        // always false
	Message      string `json:"message"`       // error message
	ResponseTime int64  `json:"response_time"` // milliseconds since the request started
	RequestID    string `json:"request_id"`
	ServerID     string `json:"server_id"`
}

// ResponseContext holds request metadata echoed back in error replies
type ResponseContext struct {
	RequestID string
	StartTime time.Time
	ServerID  string
}

// NewResponseContext creates a response context. A zero startTime means now.
func NewResponseContext(requestID string, startTime time.Time) *ResponseContext {
	serverID := os.Getenv("SERVER_ID")
	if serverID == "" {
		serverID = "test-orchestrator"
	}
	if startTime.IsZero() {
		startTime = time.Now()
	}

	return &ResponseContext{
		RequestID: requestID,
		StartTime: startTime,
		ServerID:  serverID,
	}
}

// GinResponseContext builds a response context from values set by the request id middleware
func GinResponseContext(c *gin.Context) *ResponseContext {
	return NewResponseContext(c.GetString("request_id"), c.GetTime("start_time"))
}

// RespondWithJSON sends a raw JSON response (not wrapped in the error envelope)
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithError writes the error envelope and logs it
func RespondWithError(w http.ResponseWriter, responseCtx *ResponseContext, message string, statusCode int, log *logger.Logger) {
	log.Error(
		"HTTP error response",
		zap.String("request_id", responseCtx.RequestID),
		zap.Int("status_code", statusCode),
		zap.String("message", message),
		zap.Int64("response_time", time.Since(responseCtx.StartTime).Milliseconds()),
	)

	RespondWithJSON(w, statusCode, &ErrorResponse{
		Code:         statusCode,
		Status:       false,
		Message:      message,
		ResponseTime: time.Since(responseCtx.StartTime).Milliseconds(),
		RequestID:    responseCtx.RequestID,
		ServerID:     responseCtx.ServerID,
	})
}

// HTTPError is an error carrying the HTTP status it should surface as
type HTTPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code
func (e *HTTPError) StatusCode() int {
	return e.Code
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(code int, message string, err error) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// GinHandleServiceError maps a service error onto an error response.
// HTTPErrors surface their own status and message; anything else is a 500.
func GinHandleServiceError(c *gin.Context, err error, responseHandler *ResponseHandler) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Code < http.StatusInternalServerError {
		responseHandler.GinError(c, httpErr.Message, httpErr.Code)
		return
	}
	responseHandler.GinInternalError(c, err)
}
