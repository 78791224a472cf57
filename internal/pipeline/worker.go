package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"ReelForge/internal/job"
)

const (
	DefaultPollInterval = 5 * time.Second
	cleanupInterval     = time.Hour
)

// WorkerOptions tune the queue poller.
type WorkerOptions struct {
	PollInterval time.Duration
	// StaleAfter is the age at which orphaned workspaces are swept at start.
	StaleAfter time.Duration
	// Retention removes finished jobs older than this; zero keeps them.
	Retention time.Duration
	WorkDir   string
}

// JobRunner processes one claimed job. *Workflow runs it in-process and
// *TemporalWorkflow hands it to Temporal.
type JobRunner interface {
	Run(ctx context.Context, j *job.Job) (job.RenderResult, error)
}

// Worker claims pending jobs and runs them one at a time.
type Worker struct {
	manager *job.Manager
	runner  JobRunner
	opts    WorkerOptions
	logger  *zap.Logger

	busy atomic.Bool
	wg   sync.WaitGroup
}

func NewWorker(manager *job.Manager, runner JobRunner, opts WorkerOptions, logger *zap.Logger) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Worker{manager: manager, runner: runner, opts: opts, logger: logger}
}

// Start polls until ctx is done and then waits for the in-flight job.
func (w *Worker) Start(ctx context.Context) {
	if w.opts.StaleAfter > 0 && w.opts.WorkDir != "" {
		if _, err := SweepWorkspaces(w.opts.WorkDir, w.opts.StaleAfter, w.logger); err != nil {
			w.logger.Warn("Workspace sweep failed", zap.Error(err))
		}
	}

	w.logger.Info("Worker started", zap.Duration("poll_interval", w.opts.PollInterval))
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()
	cleanup := time.NewTicker(cleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			w.logger.Info("Worker stopped")
			return
		case <-ticker.C:
			w.Poll(ctx)
		case <-cleanup.C:
			if w.opts.Retention > 0 {
				if err := w.manager.CleanupOldJobs(ctx, w.opts.Retention); err != nil {
					w.logger.Warn("Job cleanup failed", zap.Error(err))
				}
			}
		}
	}
}

// Poll claims at most one job and processes it in the background. It is a
// no-op while a job is already running.
func (w *Worker) Poll(ctx context.Context) bool {
	if !w.busy.CompareAndSwap(false, true) {
		return false
	}

	j, err := w.manager.ClaimNext(ctx)
	if err != nil || j == nil {
		if err != nil {
			w.logger.Error("Failed to claim job", zap.Error(err))
		}
		w.busy.Store(false)
		return false
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.busy.Store(false)
		w.process(ctx, j)
	}()
	return true
}

// Wait blocks until the in-flight job, if any, has finished.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) process(ctx context.Context, j *job.Job) {
	w.logger.Info("Processing job", zap.String("job_id", j.ID.String()))
	if _, err := w.runner.Run(ctx, j); err != nil {
		// A cancelled ctx would also fail the status write.
		if ctx.Err() != nil {
			ctx = context.WithoutCancel(ctx)
		}
		if emitErr := w.manager.EmitError(ctx, j.ID, err.Error()); emitErr != nil {
			w.logger.Error("Failed to record job failure", zap.String("job_id", j.ID.String()), zap.Error(emitErr))
		}
	}
}
