package health

import (
	"context"
	"time"
)

// Status values reported by checks
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
)

// HealthStatus is the liveness reply
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Check represents the result of one dependency check
type Check struct {
	Status  string    `json:"status"` // "healthy" or "unhealthy"
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

// ReadinessStatus represents the readiness status
type ReadinessStatus struct {
	Status    string           `json:"status"` // "ready" or "not_ready"
	Timestamp time.Time        `json:"timestamp"`
	Uptime    float64          `json:"uptime_seconds"`
	Services  map[string]Check `json:"services"`
}

// ReadinessChecker checks one infrastructure dependency
type ReadinessChecker interface {
	Check(ctx context.Context) Check
	Name() string
}
