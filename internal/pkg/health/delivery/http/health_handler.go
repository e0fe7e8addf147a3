package healthHttp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"test-orchestrator/internal/pkg/health"
	healthService "test-orchestrator/internal/pkg/health/service"
	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/utils"
)

// HealthHandler handles HTTP requests for health checks
type HealthHandler struct {
	service *healthService.HealthService
	logger  *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service *healthService.HealthService, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  log.Named("health-handler"),
	}
}

// RegisterGinRoutes mounts /health and /ready
func (h *HealthHandler) RegisterGinRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.GinHealth)
	r.GET("/ready", h.GinReady)
}

// GinHealth always answers 200 while the process is serving
func (h *HealthHandler) GinHealth(c *gin.Context) {
	utils.RespondWithJSON(c.Writer, http.StatusOK, h.service.Health())
}

// GinReady answers 503 when any infrastructure dependency is unhealthy
func (h *HealthHandler) GinReady(c *gin.Context) {
	status := h.service.Ready(c.Request.Context())

	code := http.StatusOK
	if status.Status != health.StatusReady {
		code = http.StatusServiceUnavailable
	}
	utils.RespondWithJSON(c.Writer, code, status)
}
