package prober

import (
	"context"
	"time"

	"go.uber.org/zap"

	"test-orchestrator/internal/pkg/orchestrator"
	"test-orchestrator/internal/pkg/orchestrator/registry"
	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/metrics"
)

// Prober runs availability checks and records their outcome in the registry.
// Failures are absorbed into component state and never returned as errors.
type Prober struct {
	registry *registry.Registry
	backend  registry.Pinger
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      func() time.Time
}

// New creates a prober. backend may be nil, in which case the backend is reported not ready.
func New(reg *registry.Registry, backend registry.Pinger, m *metrics.Metrics, log *logger.Logger) *Prober {
	return &Prober{
		registry: reg,
		backend:  backend,
		metrics:  m,
		logger:   log.Named("prober"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ProbeBackend performs a liveness check against the backend service
func (p *Prober) ProbeBackend(ctx context.Context) bool {
	p.logger.Debug("Checking backend health")

	status := orchestrator.ComponentStatus{
		Name:       orchestrator.BackendComponent,
		State:      orchestrator.StateAvailable,
		Detail:     "gRPC service responding",
		ObservedAt: p.now(),
	}

	if p.backend == nil {
		status.State = orchestrator.StateNotReady
		status.Detail = "backend probe not configured"
	} else if err := p.backend.Ping(ctx); err != nil {
		p.logger.Error("Backend health check failed", zap.Error(err))
		status.State = orchestrator.StateNotReady
		status.Detail = err.Error()
	}

	p.record(status)
	return status.Available()
}

// ProbeComponent checks whether a component can be tested right now
func (p *Prober) ProbeComponent(ctx context.Context, component string) bool {
	available, detail := p.registry.Availability(ctx, component)

	status := orchestrator.ComponentStatus{
		Name:       component,
		State:      orchestrator.StateNotReady,
		Detail:     detail,
		ObservedAt: p.now(),
	}
	if available {
		status.State = orchestrator.StateAvailable
	}

	p.logger.Debug("Component availability checked",
		zap.String("component", component),
		zap.String("state", string(status.State)))

	p.record(status)
	return available
}

// ProbeAll probes every registered component and then the backend,
// so the backend entry in the status map reflects the liveness check.
func (p *Prober) ProbeAll(ctx context.Context) (backendHealthy bool, components map[string]bool) {
	components = make(map[string]bool)
	for _, c := range p.registry.Components() {
		components[c] = p.ProbeComponent(ctx, c)
	}
	return p.ProbeBackend(ctx), components
}

func (p *Prober) record(status orchestrator.ComponentStatus) {
	p.registry.SetStatus(status)
	p.metrics.RecordHealthCheck(status.Name, string(status.State))
}
