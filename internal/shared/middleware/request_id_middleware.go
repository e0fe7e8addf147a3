package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"test-orchestrator/internal/utils"
)

// RequestIDMiddleware assigns every request an id and a start time
type RequestIDMiddleware struct{}

// NewRequestIDMiddleware creates a new request ID middleware
func NewRequestIDMiddleware() *RequestIDMiddleware {
	return &RequestIDMiddleware{}
}

// GenerateRequestID generates a unique request ID
func (m *RequestIDMiddleware) GenerateRequestID() string {
	return "req-" + utils.GenerateUUID()
}

// Middleware reuses an incoming X-Request-ID or generates one, and echoes it back
func (m *RequestIDMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = m.GenerateRequestID()
		}

		c.Header(RequestIDHeader, requestID)
		c.Set(ginRequestIDKey, requestID)
		c.Set(ginStartTimeKey, time.Now())

		c.Next()
	}
}
