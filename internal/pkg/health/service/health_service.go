package healthService

import (
	"context"
	"time"

	"go.uber.org/zap"

	"test-orchestrator/internal/pkg/health"
	"test-orchestrator/internal/shared/logger"
)

// HealthService answers liveness and readiness questions about this process
type HealthService struct {
	startTime time.Time
	checkers  []health.ReadinessChecker
	logger    *logger.Logger
}

// NewHealthService creates a new health service
func NewHealthService(log *logger.Logger) *HealthService {
	return &HealthService{
		startTime: time.Now(),
		logger:    log.Named("health-service"),
	}
}

// AddChecker registers a dependency consulted by Ready
func (s *HealthService) AddChecker(checker health.ReadinessChecker) {
	s.checkers = append(s.checkers, checker)
}

// Health reports liveness: the process is up and serving
func (s *HealthService) Health() health.HealthStatus {
	return health.HealthStatus{
		Status:    health.StatusHealthy,
		Timestamp: time.Now().UTC(),
	}
}

// Ready runs every registered checker. Any unhealthy dependency makes the service not ready.
func (s *HealthService) Ready(ctx context.Context) health.ReadinessStatus {
	status := health.ReadinessStatus{
		Status:    health.StatusReady,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(s.startTime).Seconds(),
		Services:  make(map[string]health.Check, len(s.checkers)),
	}

	for _, checker := range s.checkers {
		check := checker.Check(ctx)
		status.Services[checker.Name()] = check
		if check.Status != health.StatusHealthy {
			status.Status = health.StatusNotReady
		}
	}

	if status.Status != health.StatusReady {
		s.logger.Warn("Service not ready", zap.Int("checks", len(s.checkers)))
	}
	return status
}
