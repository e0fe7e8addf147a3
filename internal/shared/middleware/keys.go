package middleware

// Gin context keys shared with the response helpers
const (
	ginRequestIDKey = "request_id"
	ginStartTimeKey = "start_time"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"
