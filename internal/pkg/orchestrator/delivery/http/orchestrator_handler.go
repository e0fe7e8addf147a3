package orchestratorHttp

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	orchestratorService "test-orchestrator/internal/pkg/orchestrator/service"
	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/utils"
)

// OrchestratorHandler exposes the engine over HTTP
type OrchestratorHandler struct {
	service         orchestratorService.OrchestratorService
	logger          *logger.Logger
	responseHandler *utils.ResponseHandler
	testMiddleware  []gin.HandlerFunc
}

// NewOrchestratorHandler creates a new orchestrator handler. testMiddleware
// guards the routes that trigger test runs.
func NewOrchestratorHandler(svc orchestratorService.OrchestratorService, log *logger.Logger, testMiddleware ...gin.HandlerFunc) *OrchestratorHandler {
	return &OrchestratorHandler{
		service:         svc,
		logger:          log.Named("orchestrator-handler"),
		responseHandler: utils.NewResponseHandler(log.Named("orchestrator-responses")),
		testMiddleware:  testMiddleware,
	}
}

// GinStatus reports backend health, component status and the number of tests run
func (h *OrchestratorHandler) GinStatus(c *gin.Context) {
	h.responseHandler.GinJSON(c, h.service.Status(c.Request.Context()))
}

// GinTestComponent runs one test against the component in the path
func (h *OrchestratorHandler) GinTestComponent(c *gin.Context) {
	component := c.Param("component")
	testType := c.Query("test_type")

	result, err := h.service.RunComponentTest(c.Request.Context(), component, testType)
	if err != nil {
		utils.GinHandleServiceError(c, err, h.responseHandler)
		return
	}

	h.responseHandler.GinJSON(c, result)
}

// GinRunSuite runs the suite in the path and returns its summary
func (h *OrchestratorHandler) GinRunSuite(c *gin.Context) {
	name := c.Param("suite")

	summary := h.service.RunSuite(c.Request.Context(), name)
	h.logger.Info("Suite run requested",
		zap.String("suite", name),
		zap.String("request_id", c.GetString("request_id")),
		zap.Int("total_tests", summary.TotalTests))

	h.responseHandler.GinJSON(c, summary)
}

// GinListSuites returns the suite catalog
func (h *OrchestratorHandler) GinListSuites(c *gin.Context) {
	h.responseHandler.GinJSON(c, h.service.Suites())
}

// GinResults returns every result recorded since startup
func (h *OrchestratorHandler) GinResults(c *gin.Context) {
	h.responseHandler.GinJSON(c, h.service.Results())
}
