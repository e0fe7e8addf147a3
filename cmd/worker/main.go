package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"test-orchestrator/internal/app/bootstrap"
)

func main() {
	container, err := bootstrap.NewContainer(bootstrap.ContainerOptions{
		ConfigPath: "./configs",
	})
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			container.Logger.Error("Failed to close container gracefully", zap.Error(err))
		}
	}()

	appLogger := container.Logger.Named("worker")

	sched, err := container.NewScheduler()
	if err != nil {
		appLogger.Error("Failed to register cron jobs", zap.Error(err))
		return
	}

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", container.Config.WorkerMetricsPort),
		Handler:           metricsMux(container),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("Metrics listener started", zap.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		container.Metrics.TrackUptime(gctx, 15*time.Second)
		return nil
	})

	// Probe once up front so the first scrape has component state
	if _, err := sched.RunNow("component-probe"); err != nil {
		appLogger.Warn("Initial probe could not run", zap.Error(err))
	}

	sched.Start()
	appLogger.Info("Worker is running",
		zap.String("environment", container.Config.Environment),
		zap.Strings("jobs", sched.GetRegisteredJobs()))

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Worker is shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		stopped := make(chan struct{})
		go func() {
			sched.Stop()
			close(stopped)
		}()

		select {
		case <-stopped:
			appLogger.Info("Cron scheduler stopped gracefully")
		case <-shutdownCtx.Done():
			appLogger.Warn("Cron scheduler shutdown timed out")
		}
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Worker stopped with error", zap.Error(err))
		return
	}
	appLogger.Info("Worker gracefully stopped")
}

func metricsMux(container *bootstrap.Container) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(container.Config.MetricsPath, container.Metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
