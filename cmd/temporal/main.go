package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"ReelForge/internal/api"
	"ReelForge/internal/app"
	"ReelForge/internal/config"
	"ReelForge/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	serve := flag.Bool("serve", false, "also serve the HTTP API")
	flag.Parse()

	// Initialize logger first
	bootstrap, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	cfg, err := config.NewConfigLoader(bootstrap).Load(*configPath)
	if err != nil {
		bootstrap.Fatal("Failed to load config", zap.Error(err))
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		bootstrap.Fatal("Failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		logger.Fatal("Failed to create Temporal client", zap.Error(err))
	}
	defer temporalClient.Close()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer application.Close()

	temporalWorkflow := pipeline.NewTemporalWorkflow(
		temporalClient,
		cfg.Temporal.TaskQueue,
		pipeline.NewActivities(application.Workflow, application.Manager),
		logger,
	)
	if err := temporalWorkflow.StartWorker(); err != nil {
		logger.Fatal("Failed to start Temporal worker", zap.Error(err))
	}
	defer temporalWorkflow.StopWorker()
	logger.Info("Temporal worker started", zap.String("task_queue", cfg.Temporal.TaskQueue))

	// Pending jobs are claimed from the store and dispatched as workflows.
	dispatcher := application.NewWorker(temporalWorkflow)
	go dispatcher.Start(ctx)

	var server *api.Server
	if *serve {
		server = api.NewServer(application.Manager, application.Compiler, cfg.Server, logger)
		go func() {
			if err := server.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed", zap.Error(err))
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown failed", zap.Error(err))
		}
	}
	dispatcher.Wait()
}
