package orchestratorHttp

import (
	"github.com/gin-gonic/gin"
)

// RegisterGinRoutes registers the orchestrator routes on the given Gin router
func (h *OrchestratorHandler) RegisterGinRoutes(r *gin.RouterGroup) {
	// GET /status - backend health and component status
	r.GET("/status", h.GinStatus)

	tests := r.Group("/test")
	{
		// GET /test/suites - suite catalog
		tests.GET("/suites", h.GinListSuites)

		// GET /test/results - every recorded result
		tests.GET("/results", h.GinResults)

		runs := tests.Group("")
		runs.Use(h.testMiddleware...)

		// POST /test/component/:component?test_type= - single test
		runs.POST("/component/:component", h.GinTestComponent)

		// POST /test/suite/:suite - whole suite
		runs.POST("/suite/:suite", h.GinRunSuite)
	}
}
