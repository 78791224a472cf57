package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const subscriberBuffer = 16

// Manager handles job lifecycle and SSE broadcasting
type Manager struct {
	store     Repository
	logger    *zap.Logger
	clients   map[uuid.UUID][]chan ProgressUpdate
	clientsMu sync.RWMutex
}

// NewManager creates a new job manager
func NewManager(store Repository, logger *zap.Logger) *Manager {
	return &Manager{
		store:   store,
		logger:  logger,
		clients: make(map[uuid.UUID][]chan ProgressUpdate),
	}
}

// CreateJob persists a new pending composition.
func (m *Manager) CreateJob(ctx context.Context, params NewJobParams) (*Job, error) {
	job, err := m.store.CreateJob(ctx, params)
	if err != nil {
		return nil, err
	}

	m.logger.Info("Job created",
		zap.String("job_id", job.ID.String()),
		zap.String("hook_key", params.HookKey),
		zap.String("demo_key", params.DemoKey),
	)

	return job, nil
}

// GetJob retrieves a job by ID
func (m *Manager) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	return m.store.GetJob(ctx, jobID)
}

// GetJobWithProgress retrieves a job with its progress events
func (m *Manager) GetJobWithProgress(ctx context.Context, jobID uuid.UUID, limit int) (*JobWithProgress, error) {
	return m.store.GetJobWithProgress(ctx, jobID, limit)
}

// ClaimNext hands the oldest pending job to the caller, or nil when there is
// none.
func (m *Manager) ClaimNext(ctx context.Context) (*Job, error) {
	job, err := m.store.ClaimNextJob(ctx)
	if err != nil {
		m.logger.Error("Failed to claim job", zap.Error(err))
		return nil, err
	}
	if job != nil {
		m.logger.Info("Job claimed", zap.String("job_id", job.ID.String()))
	}
	return job, nil
}

// EmitProgress records a stage transition and fans it out to subscribers.
func (m *Manager) EmitProgress(ctx context.Context, jobID uuid.UUID, stage JobStage, progress int, message string, details map[string]interface{}) error {
	err := m.store.UpdateJobStatus(ctx, jobID, StatusProcessing, stage, progress)
	if err != nil {
		m.logger.Error("Failed to update job status",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		return err
	}

	if err := m.record(ctx, jobID, stage, progress, message, details); err != nil {
		return err
	}

	m.logger.Info("Progress emitted",
		zap.String("job_id", jobID.String()),
		zap.String("stage", string(stage)),
		zap.Int("progress", progress),
		zap.String("message", message),
	)

	return nil
}

// EmitError marks the job failed with errorMessage exactly as given.
func (m *Manager) EmitError(ctx context.Context, jobID uuid.UUID, errorMessage string) error {
	err := m.store.UpdateJobError(ctx, jobID, errorMessage)
	if err != nil {
		m.logger.Error("Failed to update job error",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		return err
	}

	if err := m.record(ctx, jobID, StageFailed, 0, errorMessage, nil); err != nil {
		return err
	}

	m.logger.Error("Job failed",
		zap.String("job_id", jobID.String()),
		zap.String("error", errorMessage),
	)

	return nil
}

// CompleteJob marks a job as completed with result
func (m *Manager) CompleteJob(ctx context.Context, jobID uuid.UUID, result RenderResult) error {
	err := m.store.CompleteJob(ctx, jobID, result)
	if err != nil {
		m.logger.Error("Failed to complete job",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		return err
	}

	details := map[string]interface{}{
		"output_key":        result.OutputKey,
		"expected_duration": result.ExpectedDuration,
	}
	if err := m.record(ctx, jobID, StageCompleted, 100, "Composition completed successfully", details); err != nil {
		return err
	}

	m.logger.Info("Job completed",
		zap.String("job_id", jobID.String()),
		zap.String("output_key", result.OutputKey),
	)

	return nil
}

// record persists a progress event and broadcasts it.
func (m *Manager) record(ctx context.Context, jobID uuid.UUID, stage JobStage, progress int, message string, details map[string]interface{}) error {
	if err := m.store.AddProgressEvent(ctx, jobID, stage, progress, message, details); err != nil {
		m.logger.Error("Failed to add progress event",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		return err
	}

	m.broadcastUpdate(jobID, ProgressUpdate{
		JobID:     jobID,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	})
	return nil
}

// Subscribe adds an SSE client for a job
func (m *Manager) Subscribe(jobID uuid.UUID) chan ProgressUpdate {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	ch := make(chan ProgressUpdate, subscriberBuffer)
	m.clients[jobID] = append(m.clients[jobID], ch)

	m.logger.Info("Client subscribed",
		zap.String("job_id", jobID.String()),
		zap.Int("total_clients", len(m.clients[jobID])),
	)

	return ch
}

// Unsubscribe removes an SSE client and closes its channel.
func (m *Manager) Unsubscribe(jobID uuid.UUID, ch chan ProgressUpdate) {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	clients := m.clients[jobID]
	for i, client := range clients {
		if client == ch {
			m.clients[jobID] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}

	if len(m.clients[jobID]) == 0 {
		delete(m.clients, jobID)
	}

	m.logger.Info("Client unsubscribed",
		zap.String("job_id", jobID.String()),
		zap.Int("remaining_clients", len(m.clients[jobID])),
	)
}

// broadcastUpdate never blocks: a subscriber with a full buffer misses the
// update.
func (m *Manager) broadcastUpdate(jobID uuid.UUID, update ProgressUpdate) {
	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()

	clients := m.clients[jobID]
	if len(clients) == 0 {
		return
	}

	m.logger.Debug("Broadcasting update",
		zap.String("job_id", jobID.String()),
		zap.Int("client_count", len(clients)),
	)

	for _, ch := range clients {
		select {
		case ch <- update:
		default:
			m.logger.Warn("Client channel full, skipping update",
				zap.String("job_id", jobID.String()),
			)
		}
	}
}

// CleanupOldJobs cleans up finished jobs older than the specified duration
func (m *Manager) CleanupOldJobs(ctx context.Context, olderThan time.Duration) error {
	count, err := m.store.CleanupOldJobs(ctx, olderThan)
	if err != nil {
		m.logger.Error("Failed to cleanup old jobs", zap.Error(err))
		return err
	}

	m.logger.Info("Cleaned up old jobs",
		zap.Int64("count", count),
		zap.Duration("older_than", olderThan),
	)

	return nil
}

// FormatSSEMessage formats a progress update as an SSE message
func FormatSSEMessage(update ProgressUpdate) (string, error) {
	data, err := json.Marshal(update)
	if err != nil {
		return "", fmt.Errorf("failed to marshal update: %w", err)
	}

	return fmt.Sprintf("event: progress\ndata: %s\n\n", data), nil
}
