package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"test-orchestrator/internal/app/api"
	"test-orchestrator/internal/app/bootstrap"
	"test-orchestrator/internal/shared/interfaces"
)

func main() {
	// Initialize container with all dependencies
	container, err := bootstrap.NewContainer(bootstrap.ContainerOptions{
		ConfigPath: "./configs",
	})
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Ensure graceful cleanup
	defer func() {
		if err := container.Close(); err != nil {
			container.Logger.Error("Failed to close container gracefully", zap.Error(err))
		}
	}()

	server := api.NewServer(&api.ServerOptions{
		Config: container.Config,
		Logger: container.Logger,
		Handlers: []interfaces.Handler{
			container.HealthHandler,
			container.OrchestratorHandler,
		},
		LoggingMiddleware:   container.LoggingMiddleware,
		RecoveryMiddleware:  container.RecoveryMiddleware,
		SecurityMiddleware:  container.SecurityMiddleware,
		RequestIDMiddleware: container.RequestIDMiddleware,
		Metrics:             container.Metrics,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		container.Metrics.TrackUptime(gctx, 15*time.Second)
		return nil
	})

	if container.Config.SchedulerEnabled {
		sched, err := container.NewScheduler()
		if err != nil {
			container.Logger.Error("Failed to register scheduled jobs", zap.Error(err))
			return
		}
		sched.Start()
		g.Go(func() error {
			<-gctx.Done()
			sched.Stop()
			return nil
		})
	}

	container.Logger.Info("Server is running",
		zap.Int("port", container.Config.ServerPort),
		zap.String("environment", container.Config.Environment),
		zap.Bool("scheduler_enabled", container.Config.SchedulerEnabled))

	// Perform initial health check
	healthCtx, healthCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := container.Health(healthCtx); err != nil {
		container.Logger.Warn("Initial health check failed", zap.Error(err))
	} else {
		container.Logger.Info("Initial health check passed")
	}
	healthCancel()

	g.Go(func() error {
		<-gctx.Done()
		container.Logger.Info("Server is shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		container.Logger.Error("Server stopped with error", zap.Error(err))
		return
	}

	container.Logger.Info("Server gracefully stopped")
}
