package executor

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"test-orchestrator/internal/pkg/orchestrator"
	"test-orchestrator/internal/pkg/orchestrator/prober"
	"test-orchestrator/internal/pkg/orchestrator/store"
	"test-orchestrator/internal/pkg/provider"
	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/metrics"
)

// Executor runs a single test against a component and records the outcome.
type Executor struct {
	prober     *prober.Prober
	clients    provider.ClientSource
	store      *store.Store
	metrics    *metrics.Metrics
	logger     *logger.Logger
	timeout    time.Duration
	strategies map[string]Strategy
	now        func() time.Time
}

// New creates an executor with the default strategies registered
func New(p *prober.Prober, clients provider.ClientSource, s *store.Store, m *metrics.Metrics, log *logger.Logger, timeout time.Duration) *Executor {
	e := &Executor{
		prober:     p,
		clients:    clients,
		store:      s,
		metrics:    m,
		logger:     log.Named("executor"),
		timeout:    timeout,
		strategies: make(map[string]Strategy),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, st := range DefaultStrategies() {
		e.Register(st)
	}
	return e
}

// Register adds or replaces the strategy for its test type.
// Not safe to call concurrently with Execute.
func (e *Executor) Register(s Strategy) {
	e.strategies[s.Name()] = s
}

// TestTypes lists the registered test types in sorted order
func (e *Executor) TestTypes() []string {
	types := make([]string, 0, len(e.strategies))
	for name := range e.strategies {
		types = append(types, name)
	}
	slices.Sort(types)
	return types
}

// Supports reports whether a strategy is registered for testType
func (e *Executor) Supports(testType string) bool {
	_, ok := e.strategies[testType]
	return ok
}

// Execute runs one test and returns its result. It never returns an error:
// unavailability, failures, timeouts and panics all end up in the result.
func (e *Executor) Execute(ctx context.Context, testID, component, testType string) orchestrator.TestResult {
	result := orchestrator.TestResult{
		ID:        testID,
		Component: component,
		TestType:  testType,
		Timestamp: e.now(),
	}

	log := e.logger.With(
		zap.String("test_id", testID),
		zap.String("component", component),
		zap.String("test_type", testType))

	start := time.Now()
	if !e.prober.ProbeComponent(ctx, component) {
		result.Status = orchestrator.StatusSkipped
		result.Details = fmt.Sprintf("Component %s not ready for testing", component)
		result.DurationSeconds = time.Since(start).Seconds()
		log.Info("Test skipped, component not ready")
		// skips are counted but never stored or timed
		e.metrics.RecordTest(e.metricLabel(testType), component, string(orchestrator.StatusSkipped))
		return result
	}

	status, details := e.run(ctx, component, testType)
	result.Status = status
	result.Details = details
	result.DurationSeconds = time.Since(start).Seconds()

	if status == orchestrator.StatusPassed {
		log.Info("Test passed", zap.Float64("duration_seconds", result.DurationSeconds))
	} else {
		log.Warn("Test failed", zap.String("details", details))
	}

	e.finish(log, result)
	return result
}

func (e *Executor) run(ctx context.Context, component, testType string) (orchestrator.TestStatus, string) {
	strategy, ok := e.strategies[testType]
	if !ok {
		return orchestrator.StatusFailed, fmt.Sprintf("no strategy registered for test type %q", testType)
	}

	client, ok := e.clients.Client(component)
	if !ok {
		return orchestrator.StatusFailed, fmt.Sprintf("no provider client configured for component %s", component)
	}

	budget := e.budget(strategy)
	runCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- strategy.Run(runCtx, client)
	}()

	select {
	case err := <-done:
		if err != nil {
			return orchestrator.StatusFailed, fmt.Sprintf("%s test failed: %v", testType, err)
		}
		return orchestrator.StatusPassed, fmt.Sprintf("%s test completed successfully", testType)
	case <-runCtx.Done():
		if ctx.Err() != nil {
			return orchestrator.StatusFailed, fmt.Sprintf("%s test cancelled: %v", testType, ctx.Err())
		}
		return orchestrator.StatusFailed, fmt.Sprintf("%s test timed out after %s", testType, budget)
	}
}

// budget is the larger of the configured timeout and twice the nominal duration
func (e *Executor) budget(s Strategy) time.Duration {
	budget := 2 * s.ExpectedDuration()
	if e.timeout > budget {
		budget = e.timeout
	}
	return budget
}

// UnregisteredTestType is the metrics label for test types with no strategy
const UnregisteredTestType = "unregistered"

// metricLabel keeps arbitrary request input out of metric label values
func (e *Executor) metricLabel(testType string) string {
	if e.Supports(testType) {
		return testType
	}
	return UnregisteredTestType
}

func (e *Executor) finish(log *logger.Logger, result orchestrator.TestResult) {
	if err := e.store.Append(result); err != nil {
		log.Error("Failed to record test result", zap.Error(err))
	}
	label := e.metricLabel(result.TestType)
	e.metrics.RecordTest(label, result.Component, string(result.Status))
	e.metrics.ObserveTestDuration(label, result.Component,
		time.Duration(result.DurationSeconds*float64(time.Second)))
}
