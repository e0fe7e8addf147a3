package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"test-orchestrator/internal/pkg/orchestrator"
	"test-orchestrator/internal/shared/logger"
)

// Engine is the part of the orchestrator the scheduled jobs drive
type Engine interface {
	ProbeAll(ctx context.Context) (backendHealthy bool, components map[string]bool)
	RunSuite(ctx context.Context, name string) orchestrator.SuiteSummary
	Suites() []orchestrator.SuiteDefinition
}

// ComponentProbeJob refreshes backend and component status on a schedule
type ComponentProbeJob struct {
	engine   Engine
	schedule string
	timeout  time.Duration
	logger   *logger.Logger
}

// NewComponentProbeJob creates the periodic probe job
func NewComponentProbeJob(engine Engine, schedule string, timeout time.Duration, log *logger.Logger) *ComponentProbeJob {
	return &ComponentProbeJob{
		engine:   engine,
		schedule: schedule,
		timeout:  timeout,
		logger:   log.Named("component-probe-job"),
	}
}

// Name returns the name of the job
func (j *ComponentProbeJob) Name() string {
	return "component-probe"
}

// Schedule returns the cron schedule expression
func (j *ComponentProbeJob) Schedule() string {
	return j.schedule
}

// Description returns a description of what the job does
func (j *ComponentProbeJob) Description() string {
	return "Probes the backend and every registered component"
}

// Timeout returns the maximum time the job should run
func (j *ComponentProbeJob) Timeout() time.Duration {
	return j.timeout
}

// Run probes everything. An unhealthy backend fails the job so it shows up in the logs as an error.
func (j *ComponentProbeJob) Run(ctx context.Context) error {
	backendHealthy, components := j.engine.ProbeAll(ctx)

	available := 0
	for _, ok := range components {
		if ok {
			available++
		}
	}
	j.logger.Info("Component probe finished",
		zap.Bool("backend_healthy", backendHealthy),
		zap.Int("available", available),
		zap.Int("components", len(components)))

	if !backendHealthy {
		return fmt.Errorf("backend is not healthy")
	}
	return nil
}
