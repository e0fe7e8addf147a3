package orchestratorHttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"test-orchestrator/internal/app/config"
	"test-orchestrator/internal/pkg/orchestrator"
	"test-orchestrator/internal/pkg/orchestrator/executor"
	"test-orchestrator/internal/pkg/orchestrator/prober"
	"test-orchestrator/internal/pkg/orchestrator/registry"
	orchestratorService "test-orchestrator/internal/pkg/orchestrator/service"
	"test-orchestrator/internal/pkg/orchestrator/store"
	"test-orchestrator/internal/pkg/orchestrator/suite"
	"test-orchestrator/internal/pkg/provider"
	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/metrics"
	"test-orchestrator/internal/shared/middleware"
	"test-orchestrator/internal/shared/utils"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNop()
	m := metrics.New("test", log)
	reg := registry.New(config.DefaultComponents(), registry.NewStaticAvailability(config.DefaultAvailability()))
	p := prober.New(reg, stubPinger{}, m, log)

	clients := provider.Clients{}
	for _, c := range config.DefaultComponents() {
		clients[c] = provider.NewSoftwareClient(c)
	}

	s := store.New()
	exec := executor.New(p, clients, s, m, log, 5*time.Second)
	runner := suite.NewRunner(suite.NewCatalog(suite.DefaultSuites()...), exec, m, log, 4)
	svc := orchestratorService.NewOrchestratorService(reg, p, exec, runner, s, log)

	r := gin.New()
	r.Use(middleware.NewRequestIDMiddleware().Middleware(), m.GinMiddleware())
	NewOrchestratorHandler(svc, log).RegisterGinRoutes(r.Group("/"))
	r.GET("/metrics", m.GinMetricsHandler())
	return r
}

func do(t *testing.T, r http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestTestComponentDefaultsToConnectivity(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/test/component/pkcs11")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result orchestrator.TestResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "connectivity", result.TestType)
	assert.Equal(t, orchestrator.StatusPassed, result.Status)
	assert.Contains(t, w.Body.String(), `"test_id":"manual_pkcs11-`)
}

func TestTestComponentUnknownComponentIs400(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/test/component/hsm?test_type=signing")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid component: hsm", body.Message)
	assert.False(t, body.Status)

	w = do(t, r, http.MethodGet, "/test/results")
	assert.Contains(t, w.Body.String(), `"total_tests":0`)
}

func TestTestComponentNotReadyIsSkipped(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/test/component/csp?test_type=signing")
	require.Equal(t, http.StatusOK, w.Code)

	var result orchestrator.TestResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, orchestrator.StatusSkipped, result.Status)
	assert.Contains(t, result.Details, "not ready")

	w = do(t, r, http.MethodGet, "/test/results")
	assert.Contains(t, w.Body.String(), `"total_tests":0`)
}

func TestRunSuite(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/test/suite/basic_connectivity")
	require.Equal(t, http.StatusOK, w.Code)

	var summary orchestrator.SuiteSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "basic_connectivity", summary.SuiteName)
	require.Equal(t, 6, summary.TotalTests)
	for i, res := range summary.Results {
		assert.Equal(t, fmt.Sprintf("basic_connectivity_%03d", i+1), res.ID)
	}
	assert.Equal(t, summary.TotalTests, summary.Passed+summary.Failed+summary.Skipped)
}

func TestRunUnknownSuite(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/test/suite/nope")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"suite_name":"nope","total_tests":0,"passed":0,"failed":0,"skipped":0,"results":[]}`, w.Body.String())
}

func TestStatusAndResults(t *testing.T) {
	r := newTestRouter(t)
	do(t, r, http.MethodPost, "/test/component/ctk")

	w := do(t, r, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, w.Code)

	var status orchestrator.StatusReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.BackendHealthy)
	assert.Equal(t, 1, status.TotalTestsRun)
	assert.Equal(t, orchestrator.StateAvailable, status.ComponentStatus["ctk"].State)

	w = do(t, r, http.MethodGet, "/test/results")
	var results orchestrator.ResultsReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Equal(t, 1, results.TotalTests)
}

func TestListSuites(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/test/suites")
	require.Equal(t, http.StatusOK, w.Code)

	var suites []orchestrator.SuiteDefinition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &suites))
	require.Len(t, suites, 3)
	assert.Equal(t, []string{"connectivity", "health_check"}, suites[0].TestTypes)
}

// sumCounter adds up every sample of metric whose labels include status="<status>"
func sumCounter(t *testing.T, exposition, metric, status string) float64 {
	t.Helper()

	var total float64
	for _, line := range strings.Split(exposition, "\n") {
		if !strings.HasPrefix(line, metric+"{") || !strings.Contains(line, `status="`+status+`"`) {
			continue
		}
		fields := strings.Fields(line)
		v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		require.NoError(t, err)
		total += v
	}
	return total
}

func TestMetricsCountTestOutcomes(t *testing.T) {
	r := newTestRouter(t)

	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/test/component/pkcs11").Code)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/test/component/backend?test_type=signing").Code)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/test/component/ctk?test_type=fuzzing").Code)

	for i := 0; i < 2; i++ {
		w := do(t, r, http.MethodGet, "/metrics")
		require.Equal(t, http.StatusOK, w.Code)

		body := w.Body.String()
		assert.Equal(t, 2.0, sumCounter(t, body, "test_tests_total", "passed"))
		assert.Equal(t, 1.0, sumCounter(t, body, "test_tests_total", "failed"))
		assert.Contains(t, body, "http_requests_total")
	}
}
