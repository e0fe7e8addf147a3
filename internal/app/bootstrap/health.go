package bootstrap

import (
	"context"
	"errors"

	"test-orchestrator/internal/pkg/health"
)

// ErrBackendNotConfigured is reported by /ready when no backend endpoint is set
var ErrBackendNotConfigured = errors.New("backend gRPC endpoint not configured")

type unconfiguredPinger struct{}

func (unconfiguredPinger) Ping(context.Context) error { return ErrBackendNotConfigured }

// readinessCheckers lists the dependencies /ready reports on. The backend is
// always listed; Redis only when the cache connected.
func (c *Container) readinessCheckers() []health.ReadinessChecker {
	timeout := c.Config.BackendProbeTimeout

	var backend health.Pinger = unconfiguredPinger{}
	if c.Backend != nil {
		backend = c.Backend
	}

	checkers := []health.ReadinessChecker{
		health.NewPingChecker("backend", backend, timeout, c.Logger),
	}
	if c.Cache != nil {
		checkers = append(checkers, health.NewPingChecker("redis", c.Cache, timeout, c.Logger))
	}
	return checkers
}
