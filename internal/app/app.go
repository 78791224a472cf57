// Package app wires configuration into the running service components.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"ReelForge/internal/config"
	"ReelForge/internal/job"
	"ReelForge/internal/pipeline"
	"ReelForge/internal/pipeline/storage"
	"ReelForge/pkg/compose"
	"ReelForge/pkg/ffmpeg"
	"ReelForge/pkg/plugin"
	"ReelForge/pkg/plugin/watermark"
)

// App holds the components shared by the HTTP service and the Temporal worker.
type App struct {
	Config   *config.Config
	Manager  *job.Manager
	Compiler *compose.Compiler
	Workflow *pipeline.Workflow
	Logger   *zap.Logger

	pool *pgxpool.Pool
}

// New connects the job store and builds the composition workflow. With an
// empty database DSN jobs are kept in memory.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	var repo job.Repository
	if cfg.Database.DSN == "" {
		logger.Warn("No database configured, jobs are kept in memory")
		repo = job.NewMemoryStore()
	} else {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		store := job.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		a.pool = pool
		repo = store
	}
	a.Manager = job.NewManager(repo, logger)

	st, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	engine := ffmpeg.NewEngine(cfg.Pipeline.FFmpegPath, cfg.EngineTimeout(), logger)
	prober := ffmpeg.NewProber(cfg.Pipeline.FFprobePath, logger)

	registry, err := plugin.NewRegistry(watermark.NewWatermarkPlugin(engine, cfg.CompilerOptions(), logger))
	if err != nil {
		a.Close()
		return nil, err
	}
	plugins := pipeline.NewPluginProcessor(registry, cfg.Plugins, logger)
	if err := plugins.Validate(); err != nil {
		a.Close()
		return nil, err
	}

	a.Compiler = compose.NewCompiler(cfg.CompilerOptions())
	a.Workflow = pipeline.NewWorkflow(
		a.Manager,
		pipeline.NewFetcher(st, cfg.Pipeline.Retry, logger),
		prober,
		a.Compiler,
		engine,
		pipeline.NewVerifier(prober, cfg.Pipeline.DriftTolerance, logger),
		plugins,
		cfg.Pipeline.WorkDir,
		logger,
	)
	return a, nil
}

// NewWorker builds the queue poller around runner.
func (a *App) NewWorker(runner pipeline.JobRunner) *pipeline.Worker {
	return pipeline.NewWorker(a.Manager, runner, pipeline.WorkerOptions{
		PollInterval: a.Config.PollInterval(),
		StaleAfter:   time.Duration(a.Config.Pipeline.StaleAfterMin) * time.Minute,
		Retention:    time.Duration(a.Config.Worker.RetentionDays) * 24 * time.Hour,
		WorkDir:      a.Config.Pipeline.WorkDir,
	}, a.Logger)
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
