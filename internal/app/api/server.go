package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"test-orchestrator/internal/app/config"
	"test-orchestrator/internal/shared/interfaces"
	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/metrics"
	customMiddleware "test-orchestrator/internal/shared/middleware"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *gin.Engine
	config *config.Config
	logger *logger.Logger
}

// ServerOptions holds the server dependencies
type ServerOptions struct {
	Config   *config.Config
	Logger   *logger.Logger
	Handlers []interfaces.Handler

	LoggingMiddleware   *customMiddleware.LoggingMiddleware
	RecoveryMiddleware  *customMiddleware.RecoveryMiddleware
	SecurityMiddleware  *customMiddleware.SecurityMiddleware
	RequestIDMiddleware *customMiddleware.RequestIDMiddleware
	Metrics             *metrics.Metrics
}

// NewServer creates a new HTTP server
func NewServer(opts *ServerOptions) *Server {
	// Set Gin mode based on environment
	if opts.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	if opts.RequestIDMiddleware != nil {
		r.Use(opts.RequestIDMiddleware.Middleware())
	}
	if opts.LoggingMiddleware != nil {
		r.Use(opts.LoggingMiddleware.GinLogRequest)
	}
	if opts.RecoveryMiddleware != nil {
		r.Use(opts.RecoveryMiddleware.GinRecover)
	}
	if opts.SecurityMiddleware != nil {
		r.Use(opts.SecurityMiddleware.GinSecurityHeaders)
	}
	if opts.Metrics != nil {
		r.Use(opts.Metrics.GinMiddleware())
	}

	setupRoutes(r, opts)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", opts.Config.ServerPort),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// suite runs hold the connection for the whole run
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		server: srv,
		router: r,
		config: opts.Config,
		logger: opts.Logger.Named("server"),
	}
}

// setupRoutes mounts every handler at the root and the metrics endpoint
func setupRoutes(r *gin.Engine, opts *ServerOptions) {
	root := r.Group("/")
	for _, h := range opts.Handlers {
		h.RegisterGinRoutes(root)
	}

	if opts.Metrics != nil {
		r.GET(opts.Config.MetricsPath, opts.Metrics.GinMetricsHandler())
	}
}

// Router exposes the engine for in-process requests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until Stop is called. A graceful stop returns nil.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.Int("port", s.config.ServerPort))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
