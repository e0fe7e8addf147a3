package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"test-orchestrator/internal/shared/logger"
)

// Pinger is anything that can answer a cheap reachability check
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker reports a dependency healthy when its Ping succeeds within timeout
type PingChecker struct {
	name    string
	pinger  Pinger
	timeout time.Duration
	logger  *logger.Logger
}

// NewPingChecker creates a checker named name over pinger
func NewPingChecker(name string, pinger Pinger, timeout time.Duration, log *logger.Logger) *PingChecker {
	return &PingChecker{
		name:    name,
		pinger:  pinger,
		timeout: timeout,
		logger:  log.Named(name + "-health-checker"),
	}
}

// Name returns the name of this health checker
func (c *PingChecker) Name() string {
	return c.name
}

// Check performs the health check
func (c *PingChecker) Check(ctx context.Context) Check {
	check := Check{
		Status: StatusHealthy,
		Time:   time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.pinger.Ping(ctx); err != nil {
		check.Status = StatusUnhealthy
		check.Message = c.name + " check failed: " + err.Error()
		c.logger.Warn("Dependency check failed", zap.Error(err))
	} else {
		check.Message = c.name + " is reachable"
	}

	return check
}
