package suite

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"test-orchestrator/internal/pkg/orchestrator"
	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/metrics"
)

// TestExecutor runs one test and always produces a result
type TestExecutor interface {
	Execute(ctx context.Context, testID, component, testType string) orchestrator.TestResult
}

// Runner expands a suite into tests and executes them with bounded concurrency
type Runner struct {
	catalog     *Catalog
	sequencer   *Sequencer
	executor    TestExecutor
	metrics     *metrics.Metrics
	logger      *logger.Logger
	concurrency int
}

// NewRunner creates a suite runner. concurrency below 1 runs tests one at a time.
func NewRunner(catalog *Catalog, executor TestExecutor, m *metrics.Metrics, log *logger.Logger, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		catalog:     catalog,
		sequencer:   NewSequencer(),
		executor:    executor,
		metrics:     m,
		logger:      log.Named("suite"),
		concurrency: concurrency,
	}
}

// Catalog returns the suites this runner knows about
func (r *Runner) Catalog() *Catalog {
	return r.catalog
}

type plannedTest struct {
	id        string
	component string
	testType  string
}

// RunSuite executes every component and test type pair of the named suite.
// Unknown suites produce an empty summary. Results are ordered components outer, test types inner.
func (r *Runner) RunSuite(ctx context.Context, name string) orchestrator.SuiteSummary {
	def, ok := r.catalog.Get(name)
	if !ok {
		r.logger.Warn("Unknown test suite requested", zap.String("suite", name))
		return orchestrator.Summarize(name, nil)
	}

	plan := r.plan(def)
	r.logger.Info("Running test suite",
		zap.String("suite", name),
		zap.Int("tests", len(plan)),
		zap.Int("concurrency", r.concurrency))

	results := make([]orchestrator.TestResult, len(plan))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, t := range plan {
		i, t := i, t
		g.Go(func() error {
			results[i] = r.executor.Execute(gctx, t.id, t.component, t.testType)
			return nil
		})
	}
	_ = g.Wait()

	r.metrics.RecordSuiteRun(name)

	summary := orchestrator.Summarize(name, results)
	r.logger.Info("Test suite finished",
		zap.String("suite", name),
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped))
	return summary
}

func (r *Runner) plan(def orchestrator.SuiteDefinition) []plannedTest {
	first := r.sequencer.Reserve(def.Name, def.Size())

	plan := make([]plannedTest, 0, def.Size())
	for _, component := range def.Components {
		for _, testType := range def.TestTypes {
			plan = append(plan, plannedTest{
				id:        fmt.Sprintf("%s_%03d", def.Name, first+len(plan)),
				component: component,
				testType:  testType,
			})
		}
	}
	return plan
}
