package orchestrator

import "time"

// ComponentState is the availability of a provider component at probe time
type ComponentState string

const (
	StateAvailable ComponentState = "available"
	StateNotReady  ComponentState = "not_ready"
	StateUnknown   ComponentState = "unknown"
)

// TestStatus is the outcome of a single test
type TestStatus string

const (
	StatusPassed  TestStatus = "passed"
	StatusFailed  TestStatus = "failed"
	StatusSkipped TestStatus = "skipped"
)

// BackendComponent is the component name the backend liveness probe records under
const BackendComponent = "backend"

// DefaultTestType is used when a single-test request names no test type
const DefaultTestType = "connectivity"

// ComponentStatus is the last observed availability of one component
type ComponentStatus struct {
	Name       string         `json:"service"`
	State      ComponentState `json:"status"`
	Detail     string         `json:"details,omitempty"`
	ObservedAt time.Time      `json:"timestamp"`
}

// Available reports whether tests may run against the component
func (s ComponentStatus) Available() bool {
	return s.State == StateAvailable
}

// TestResult is the immutable record of one executed (or skipped) test
type TestResult struct {
	ID              string     `json:"test_id"`
	Component       string     `json:"component"`
	TestType        string     `json:"test_type"`
	Status          TestStatus `json:"status"`
	DurationSeconds float64    `json:"duration_seconds"`
	Details         string     `json:"details"`
	Timestamp       time.Time  `json:"timestamp"`
}

// SuiteDefinition is a named cross product of components and test types
type SuiteDefinition struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Components  []string `json:"components"`
	TestTypes   []string `json:"tests"`
}

// Size returns the number of tests one run of the suite produces
func (d SuiteDefinition) Size() int {
	return len(d.Components) * len(d.TestTypes)
}

// SuiteSummary aggregates the results of one suite invocation
type SuiteSummary struct {
	SuiteName  string       `json:"suite_name"`
	TotalTests int          `json:"total_tests"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Results    []TestResult `json:"results"`
}

// Summarize builds a summary by counting results per status
func Summarize(suiteName string, results []TestResult) SuiteSummary {
	if results == nil {
		results = []TestResult{}
	}
	summary := SuiteSummary{
		SuiteName:  suiteName,
		TotalTests: len(results),
		Results:    results,
	}
	for _, r := range results {
		switch r.Status {
		case StatusPassed:
			summary.Passed++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		}
	}
	return summary
}

// StatusReport is the overall orchestrator status
type StatusReport struct {
	BackendHealthy  bool                       `json:"backend_healthy"`
	ComponentStatus map[string]ComponentStatus `json:"component_status"`
	TotalTestsRun   int                        `json:"total_tests_run"`
}

// ResultsReport is the full result log for the process lifetime
type ResultsReport struct {
	TotalTests int          `json:"total_tests"`
	Results    []TestResult `json:"results"`
}

// ComponentTestRequest is a request to run a single test against a component
type ComponentTestRequest struct {
	Component string `json:"component" validate:"required,known_component"`
	TestType  string `json:"test_type" validate:"required,max=64,test_type"`
}
