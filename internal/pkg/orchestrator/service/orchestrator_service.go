package orchestratorService

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"test-orchestrator/internal/pkg/orchestrator"
	"test-orchestrator/internal/pkg/orchestrator/prober"
	"test-orchestrator/internal/pkg/orchestrator/registry"
	"test-orchestrator/internal/pkg/orchestrator/store"
	"test-orchestrator/internal/pkg/orchestrator/suite"
	"test-orchestrator/internal/shared/interfaces"
	"test-orchestrator/internal/shared/logger"
	sharedUtils "test-orchestrator/internal/shared/utils"
	"test-orchestrator/internal/utils"
)

var testTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// TestExecutor runs a single test and always returns a result
type TestExecutor interface {
	Execute(ctx context.Context, testID, component, testType string) orchestrator.TestResult
}

// OrchestratorService defines the engine operations exposed to the HTTP layer and the scheduler
type OrchestratorService interface {
	interfaces.Service
	Status(ctx context.Context) orchestrator.StatusReport
	RunComponentTest(ctx context.Context, component, testType string) (orchestrator.TestResult, error)
	RunSuite(ctx context.Context, name string) orchestrator.SuiteSummary
	Results() orchestrator.ResultsReport
	Suites() []orchestrator.SuiteDefinition
	ProbeAll(ctx context.Context) (backendHealthy bool, components map[string]bool)
}

// DefaultOrchestratorService is the engine: one instance per process, injected where needed
type DefaultOrchestratorService struct {
	registry *registry.Registry
	prober   *prober.Prober
	executor TestExecutor
	runner   *suite.Runner
	store    *store.Store
	validate *validator.Validate
	newID    func(component string) string
	logger   *logger.Logger
}

// NewOrchestratorService wires the engine from its parts
func NewOrchestratorService(
	reg *registry.Registry,
	p *prober.Prober,
	exec TestExecutor,
	runner *suite.Runner,
	s *store.Store,
	log *logger.Logger,
) OrchestratorService {
	svc := &DefaultOrchestratorService{
		registry: reg,
		prober:   p,
		executor: exec,
		runner:   runner,
		store:    s,
		validate: validator.New(),
		newID:    utils.ManualTestID,
		logger:   log.Named("orchestrator-service"),
	}

	// registration only fails for empty tags or nil funcs
	_ = svc.validate.RegisterValidation("known_component", func(fl validator.FieldLevel) bool {
		return reg.Known(fl.Field().String())
	})
	_ = svc.validate.RegisterValidation("test_type", func(fl validator.FieldLevel) bool {
		return testTypePattern.MatchString(fl.Field().String())
	})

	return svc
}

// Status probes the backend and reports the last observed state of every component
func (s *DefaultOrchestratorService) Status(ctx context.Context) orchestrator.StatusReport {
	healthy := s.prober.ProbeBackend(ctx)
	return orchestrator.StatusReport{
		BackendHealthy:  healthy,
		ComponentStatus: s.registry.Snapshot(),
		TotalTestsRun:   s.store.Count(),
	}
}

// RunComponentTest validates the request and runs a single on-demand test
func (s *DefaultOrchestratorService) RunComponentTest(ctx context.Context, component, testType string) (orchestrator.TestResult, error) {
	if testType == "" {
		testType = orchestrator.DefaultTestType
	}

	req := orchestrator.ComponentTestRequest{Component: component, TestType: testType}
	if err := s.validate.Struct(req); err != nil {
		s.logger.Warn("Rejected component test request",
			zap.String("component", component),
			zap.String("test_type", testType),
			zap.Error(err))
		return orchestrator.TestResult{}, validationError(req, err)
	}

	return s.executor.Execute(ctx, s.newID(component), component, testType), nil
}

// RunSuite executes a named suite. Unknown suites yield an empty summary.
func (s *DefaultOrchestratorService) RunSuite(ctx context.Context, name string) orchestrator.SuiteSummary {
	return s.runner.RunSuite(ctx, name)
}

// Results returns every result recorded since startup
func (s *DefaultOrchestratorService) Results() orchestrator.ResultsReport {
	results := s.store.All()
	return orchestrator.ResultsReport{TotalTests: len(results), Results: results}
}

// Suites returns the suite catalog
func (s *DefaultOrchestratorService) Suites() []orchestrator.SuiteDefinition {
	return s.runner.Catalog().List()
}

// ProbeAll refreshes the status of the backend and every component
func (s *DefaultOrchestratorService) ProbeAll(ctx context.Context) (bool, map[string]bool) {
	return s.prober.ProbeAll(ctx)
}

func validationError(req orchestrator.ComponentTestRequest, err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Tag() {
		case "known_component", "required":
			if fieldErrs[0].Field() == "Component" {
				return sharedUtils.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid component: %s", req.Component), err)
			}
		}
		return sharedUtils.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid test type: %s", req.TestType), err)
	}
	return sharedUtils.NewHTTPError(http.StatusBadRequest, "Invalid test request", err)
}
