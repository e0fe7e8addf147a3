package interfaces

import (
	"context"

	"github.com/gin-gonic/gin"

	"test-orchestrator/internal/app/config"
	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/metrics"
)

// Container defines the interface for dependency injection container
type Container interface {
	// Configuration and core services
	GetConfig() *config.Config
	GetLogger() *logger.Logger
	GetMetrics() *metrics.Metrics

	// Health and lifecycle
	Health(ctx context.Context) error
	Close() error
}

// Service marks engine-facing services
type Service interface {
}

// Handler is an HTTP delivery adapter that mounts its own routes
type Handler interface {
	RegisterGinRoutes(r *gin.RouterGroup)
}
