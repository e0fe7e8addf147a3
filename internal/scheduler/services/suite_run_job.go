package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"test-orchestrator/internal/shared/logger"
)

// SuiteRunJob runs one suite on a schedule
type SuiteRunJob struct {
	engine      Engine
	suite       string
	schedule    string
	testTimeout time.Duration
	logger      *logger.Logger
}

// NewSuiteRunJob creates a scheduled run of suite
func NewSuiteRunJob(engine Engine, suite, schedule string, testTimeout time.Duration, log *logger.Logger) *SuiteRunJob {
	return &SuiteRunJob{
		engine:      engine,
		suite:       suite,
		schedule:    schedule,
		testTimeout: testTimeout,
		logger:      log.Named("suite-run-job"),
	}
}

// Name returns the name of the job
func (j *SuiteRunJob) Name() string {
	return "suite-run:" + j.suite
}

// Schedule returns the cron schedule expression
func (j *SuiteRunJob) Schedule() string {
	return j.schedule
}

// Description returns a description of what the job does
func (j *SuiteRunJob) Description() string {
	return fmt.Sprintf("Runs the %s test suite", j.suite)
}

// Timeout allows every test of the suite its full budget
func (j *SuiteRunJob) Timeout() time.Duration {
	size := 1
	for _, def := range j.engine.Suites() {
		if def.Name == j.suite && def.Size() > size {
			size = def.Size()
		}
	}
	return j.testTimeout * time.Duration(size)
}

// Run executes the suite. Failed tests fail the job; skipped ones do not.
func (j *SuiteRunJob) Run(ctx context.Context) error {
	summary := j.engine.RunSuite(ctx, j.suite)

	j.logger.Info("Scheduled suite finished",
		zap.String("suite", j.suite),
		zap.Int("total_tests", summary.TotalTests),
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped))

	if summary.TotalTests == 0 {
		return fmt.Errorf("suite %s produced no tests", j.suite)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("suite %s: %d of %d tests failed", j.suite, summary.Failed, summary.TotalTests)
	}
	return nil
}
