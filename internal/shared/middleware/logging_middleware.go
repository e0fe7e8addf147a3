package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"test-orchestrator/internal/shared/logger"
)

// LoggingMiddleware logs one line per completed request
type LoggingMiddleware struct {
	logger    *logger.Logger
	skipPaths map[string]struct{}
}

// NewLoggingMiddleware creates a new logging middleware. Requests to skipPaths are not logged.
func NewLoggingMiddleware(log *logger.Logger, skipPaths ...string) *LoggingMiddleware {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return &LoggingMiddleware{
		logger:    log.Named("http"),
		skipPaths: skip,
	}
}

// GinLogRequest logs method, route, status and latency once the handler chain is done
func (m *LoggingMiddleware) GinLogRequest(c *gin.Context) {
	start := time.Now()

	c.Next()

	if _, skip := m.skipPaths[c.Request.URL.Path]; skip {
		return
	}

	status := c.Writer.Status()
	fields := []zap.Field{
		zap.String("request_id", c.GetString(ginRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("route", c.FullPath()),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)),
		zap.String("client_ip", c.ClientIP()),
		zap.Int("response_size", c.Writer.Size()),
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.String("errors", c.Errors.String()))
	}

	switch {
	case status >= 500:
		m.logger.Error("Request completed", fields...)
	case status >= 400:
		m.logger.Warn("Request completed", fields...)
	default:
		m.logger.Info("Request completed", fields...)
	}
}
