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

	"go.uber.org/zap"

	"ReelForge/internal/api"
	"ReelForge/internal/app"
	"ReelForge/internal/config"
	"ReelForge/internal/pipeline"
)

func main() {
	configPath := flag.String("config", envOr("REELFORGE_CONFIG", "config.yaml"), "path to the config file")
	flag.Parse()

	bootstrap, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}

	cfg, err := config.NewConfigLoader(bootstrap).Load(*configPath)
	if err != nil {
		bootstrap.Fatal("Failed to load config", zap.Error(err))
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		bootstrap.Fatal("Failed to build logger", zap.Error(err))
	}
	defer func(logger *zap.Logger) {
		if err := logger.Sync(); err != nil {
			log.Printf("error syncing logger: %v", err)
		}
	}(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer application.Close()

	var worker *pipeline.Worker
	if cfg.Worker.Enabled {
		worker = application.NewWorker(application.Workflow)
		go worker.Start(ctx)
	}

	server := api.NewServer(application.Manager, application.Compiler, cfg.Server, logger)
	go func() {
		if err := server.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	if worker != nil {
		worker.Wait()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
