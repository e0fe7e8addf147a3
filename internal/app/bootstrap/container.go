package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"test-orchestrator/internal/app/config"
	healthHttp "test-orchestrator/internal/pkg/health/delivery/http"
	healthService "test-orchestrator/internal/pkg/health/service"
	"test-orchestrator/internal/pkg/orchestrator"
	orchestratorHttp "test-orchestrator/internal/pkg/orchestrator/delivery/http"
	"test-orchestrator/internal/pkg/orchestrator/executor"
	"test-orchestrator/internal/pkg/orchestrator/prober"
	"test-orchestrator/internal/pkg/orchestrator/registry"
	orchestratorService "test-orchestrator/internal/pkg/orchestrator/service"
	"test-orchestrator/internal/pkg/orchestrator/store"
	"test-orchestrator/internal/pkg/orchestrator/suite"
	"test-orchestrator/internal/pkg/provider"
	"test-orchestrator/internal/scheduler"
	"test-orchestrator/internal/shared/cache"
	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/metrics"
	"test-orchestrator/internal/shared/middleware"
)

// Container holds all application dependencies
type Container struct {
	// Configuration and Infrastructure
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	// Optional infrastructure
	Cache   *cache.Redis
	Backend *provider.GRPCHealthChecker

	// Engine
	Clients             provider.Clients
	Registry            *registry.Registry
	Store               *store.Store
	OrchestratorService orchestratorService.OrchestratorService
	HealthService       *healthService.HealthService

	// HTTP Handlers
	OrchestratorHandler *orchestratorHttp.OrchestratorHandler
	HealthHandler       *healthHttp.HealthHandler

	// Middleware
	LoggingMiddleware   *middleware.LoggingMiddleware
	RecoveryMiddleware  *middleware.RecoveryMiddleware
	SecurityMiddleware  *middleware.SecurityMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	RequestIDMiddleware *middleware.RequestIDMiddleware

	closers []func() error
}

// ContainerOptions defines configuration options for the container
type ContainerOptions struct {
	ConfigPath string

	// Config and Logger, when set, bypass loading from ConfigPath
	Config *config.Config
	Logger *logger.Logger
}

// NewContainer creates and initializes all application dependencies
func NewContainer(opts ContainerOptions) (*Container, error) {
	container := &Container{}

	cfg := opts.Config
	if cfg == nil {
		var err error
		cfg, err = config.LoadConfig(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	container.Config = cfg

	container.Logger = opts.Logger
	if container.Logger == nil {
		container.Logger = logger.New(cfg.Environment, cfg.LogDir)
	}

	container.Metrics = metrics.New(cfg.MetricsNamespace, container.Logger)

	container.initCache()

	if err := container.initBackend(); err != nil {
		return nil, fmt.Errorf("failed to initialize backend probe: %w", err)
	}

	if err := container.initEngine(); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	container.initServices()
	container.initMiddleware()
	container.initHandlers()

	if err := container.validate(); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("container validation failed: %w", err)
	}

	container.Logger.Info("Container initialized successfully",
		zap.Strings("components", container.Registry.Components()),
		zap.String("availability_mode", cfg.AvailabilityMode))
	return container, nil
}

// initCache connects to Redis when configured. An unreachable Redis is not fatal:
// rate limiting falls back to in-memory counters.
func (c *Container) initCache() {
	if c.Config.RedisURL == "" {
		return
	}

	redisClient, err := cache.New(cache.DefaultConfig(c.Config.RedisURL), c.Logger)
	if err != nil {
		c.Logger.Warn("Redis unavailable, continuing without it", zap.Error(err))
		return
	}

	c.Cache = redisClient
	c.closers = append(c.closers, redisClient.Close)
	c.Logger.Info("Cache initialized successfully")
}

// initBackend creates the gRPC health client for the backend service
func (c *Container) initBackend() error {
	if c.Config.BackendGRPCEndpoint == "" {
		c.Logger.Warn("No backend gRPC endpoint configured, backend will report not ready")
		return nil
	}

	checker, err := provider.NewGRPCHealthChecker(c.Config.BackendGRPCEndpoint, c.Config.BackendProbeTimeout)
	if err != nil {
		return err
	}

	c.Backend = checker
	c.closers = append(c.closers, checker.Close)
	c.Logger.Info("Backend probe configured", zap.String("endpoint", checker.Endpoint()))
	return nil
}

// initEngine builds the registry, executor, suite runner and the orchestrator service
func (c *Container) initEngine() error {
	cfg := c.Config

	c.Clients = make(provider.Clients, len(cfg.Components))
	for _, component := range cfg.Components {
		c.Clients[component] = provider.NewSoftwareClient(component)
	}

	checker, err := c.availabilityChecker()
	if err != nil {
		return err
	}

	var backend registry.Pinger
	if c.Backend != nil {
		backend = c.Backend
	}

	c.Registry = registry.New(cfg.Components, checker)
	c.Store = store.New()

	p := prober.New(c.Registry, backend, c.Metrics, c.Logger)
	exec := executor.New(p, c.Clients, c.Store, c.Metrics, c.Logger, cfg.TestTimeout)
	catalog := suite.NewCatalog(append(suite.DefaultSuites(), suiteDefinitions(cfg.Suites)...)...)
	runner := suite.NewRunner(catalog, exec, c.Metrics, c.Logger, cfg.SuiteConcurrency)

	c.OrchestratorService = orchestratorService.NewOrchestratorService(c.Registry, p, exec, runner, c.Store, c.Logger)
	return nil
}

// availabilityChecker selects how component readiness is decided
func (c *Container) availabilityChecker() (registry.AvailabilityChecker, error) {
	switch c.Config.AvailabilityMode {
	case config.AvailabilityFile:
		fa, err := registry.NewFileAvailability(c.Config.AvailabilityFile, c.Logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, fa.Close)
		return fa, nil

	case config.AvailabilityPing:
		pingers := make(map[string]registry.Pinger, len(c.Clients))
		for name, client := range c.Clients {
			pingers[name] = client
		}
		if c.Backend != nil {
			pingers[orchestrator.BackendComponent] = c.Backend
		}
		return registry.NewPingAvailability(pingers), nil

	default:
		return registry.NewStaticAvailability(c.Config.ComponentAvailability), nil
	}
}

func suiteDefinitions(suites []config.SuiteConfig) []orchestrator.SuiteDefinition {
	defs := make([]orchestrator.SuiteDefinition, 0, len(suites))
	for _, s := range suites {
		defs = append(defs, orchestrator.SuiteDefinition{
			Name:        s.Name,
			Description: s.Description,
			Components:  s.Components,
			TestTypes:   s.TestTypes,
		})
	}
	return defs
}

// initServices initializes the health service and its readiness checkers
func (c *Container) initServices() {
	c.HealthService = healthService.NewHealthService(c.Logger)
	for _, checker := range c.readinessCheckers() {
		c.HealthService.AddChecker(checker)
	}
}

// initMiddleware initializes all middleware
func (c *Container) initMiddleware() {
	c.LoggingMiddleware = middleware.NewLoggingMiddleware(c.Logger, "/health", c.Config.MetricsPath)
	c.RecoveryMiddleware = middleware.NewRecoveryMiddleware(c.Logger)
	c.SecurityMiddleware = middleware.NewSecurityMiddleware(c.Config.Environment == "development")
	c.RequestIDMiddleware = middleware.NewRequestIDMiddleware()

	if c.Config.RateLimitEnabled {
		c.RateLimitMiddleware = middleware.NewRateLimitMiddleware(&middleware.RateLimitConfig{
			MaxRequests: c.Config.RateLimitMaxRequests,
			Window:      c.Config.RateLimitWindow,
			BurstSize:   c.Config.RateLimitBurst,
			KeyPrefix:   "test_rate_limit",
		}, c.Cache, c.Logger)
	}
}

// initHandlers initializes all HTTP handlers
func (c *Container) initHandlers() {
	var testMiddleware []gin.HandlerFunc
	if c.RateLimitMiddleware != nil {
		testMiddleware = append(testMiddleware, c.RateLimitMiddleware.GinRateLimit())
	}

	c.OrchestratorHandler = orchestratorHttp.NewOrchestratorHandler(c.OrchestratorService, c.Logger, testMiddleware...)
	c.HealthHandler = healthHttp.NewHealthHandler(c.HealthService, c.Logger)
}

// NewScheduler builds a scheduler with the probe job and every configured suite job
func (c *Container) NewScheduler() (*scheduler.Scheduler, error) {
	s := scheduler.NewScheduler(c.Logger)
	if err := s.RegisterJobs(c.OrchestratorService, c.Config); err != nil {
		return nil, err
	}
	return s, nil
}

// validate performs validation on the container dependencies
func (c *Container) validate() error {
	if c.Config == nil {
		return fmt.Errorf("config is nil")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is nil")
	}
	if c.Metrics == nil {
		return fmt.Errorf("metrics is nil")
	}
	if c.OrchestratorService == nil {
		return fmt.Errorf("orchestrator service is nil")
	}
	if c.HealthService == nil {
		return fmt.Errorf("health service is nil")
	}
	if c.OrchestratorHandler == nil {
		return fmt.Errorf("orchestrator handler is nil")
	}
	if c.HealthHandler == nil {
		return fmt.Errorf("health handler is nil")
	}
	return nil
}

// GetConfig returns the loaded configuration
func (c *Container) GetConfig() *config.Config { return c.Config }

// GetLogger returns the root logger
func (c *Container) GetLogger() *logger.Logger { return c.Logger }

// GetMetrics returns the metrics sink
func (c *Container) GetMetrics() *metrics.Metrics { return c.Metrics }

// Close gracefully shuts down all container dependencies
func (c *Container) Close() error {
	c.Logger.Info("Shutting down container...")

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil

	if err := c.Logger.Sync(); err != nil {
		// stdout sync commonly fails with EINVAL
		c.Logger.Debug("Failed to sync logger", zap.Error(err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

// Health reports an error when any infrastructure dependency is not ready
func (c *Container) Health(ctx context.Context) error {
	status := c.HealthService.Ready(ctx)
	for name, check := range status.Services {
		if check.Status != "healthy" {
			return fmt.Errorf("%s health check failed: %s", name, check.Message)
		}
	}
	return nil
}
