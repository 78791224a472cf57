package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the persistence surface the manager and worker need.
type Repository interface {
	CreateJob(ctx context.Context, params NewJobParams) (*Job, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error)
	GetJobWithProgress(ctx context.Context, jobID uuid.UUID, limit int) (*JobWithProgress, error)
	ClaimNextJob(ctx context.Context) (*Job, error)
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status JobStatus, stage JobStage, progress int) error
	UpdateJobError(ctx context.Context, jobID uuid.UUID, errorMessage string) error
	CompleteJob(ctx context.Context, jobID uuid.UUID, result RenderResult) error
	AddProgressEvent(ctx context.Context, jobID uuid.UUID, stage JobStage, progress int, message string, details map[string]interface{}) error
	CleanupOldJobs(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Schema creates the tables the store needs. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS composition_jobs (
	id            UUID PRIMARY KEY,
	hook_key      TEXT NOT NULL,
	demo_key      TEXT NOT NULL,
	bucket        TEXT NOT NULL DEFAULT '',
	overlay_text  TEXT NOT NULL DEFAULT '',
	edit_config   JSONB NOT NULL DEFAULT '{}',
	output_key    TEXT NOT NULL,
	status        TEXT NOT NULL,
	stage         TEXT,
	progress      INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	result        JSONB,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	started_at    TIMESTAMPTZ,
	completed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS composition_jobs_pending_idx
	ON composition_jobs (created_at) WHERE status = 'pending';
CREATE TABLE IF NOT EXISTS progress_events (
	id         BIGSERIAL PRIMARY KEY,
	job_id     UUID NOT NULL REFERENCES composition_jobs(id) ON DELETE CASCADE,
	stage      TEXT NOT NULL,
	progress   INTEGER NOT NULL,
	message    TEXT NOT NULL,
	details    JSONB,
	created_at TIMESTAMPTZ NOT NULL
);
`

const jobColumns = `id, hook_key, demo_key, bucket, overlay_text, edit_config, output_key,
	status, stage, progress, error_message, result, created_at, updated_at, started_at, completed_at`

// Store handles database operations for jobs
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a new job store
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// CreateJob creates a new pending job in the database
func (s *Store) CreateJob(ctx context.Context, params NewJobParams) (*Job, error) {
	configJSON, err := json.Marshal(params.EditConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal edit config: %w", err)
	}

	now := time.Now()
	job := &Job{
		ID:          uuid.New(),
		HookKey:     params.HookKey,
		DemoKey:     params.DemoKey,
		Bucket:      params.Bucket,
		OverlayText: params.OverlayText,
		EditConfig:  params.EditConfig,
		OutputKey:   params.OutputKey,
		Status:      StatusPending,
		Stage:       StageQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `
		INSERT INTO composition_jobs
			(id, hook_key, demo_key, bucket, overlay_text, edit_config, output_key,
			 status, stage, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = s.db.Exec(ctx, query,
		job.ID, job.HookKey, job.DemoKey, job.Bucket, job.OverlayText, configJSON, job.OutputKey,
		job.Status, job.Stage, job.Progress, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return job, nil
}

// GetJob retrieves a job by ID
func (s *Store) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM composition_jobs WHERE id = $1`

	job, err := scanJob(s.db.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ClaimNextJob atomically moves the oldest pending job to processing. It
// returns nil, nil when the queue is empty. SKIP LOCKED lets several workers
// poll the same table without claiming a job twice.
func (s *Store) ClaimNextJob(ctx context.Context) (*Job, error) {
	query := `
		UPDATE composition_jobs
		SET status = $1, stage = $2, progress = 0, started_at = $3, updated_at = $3
		WHERE id = (
			SELECT id FROM composition_jobs
			WHERE status = $4
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns

	job, err := scanJob(s.db.QueryRow(ctx, query, StatusProcessing, StageDownloading, time.Now(), StatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	return job, nil
}

func scanJob(row pgx.Row) (*Job, error) {
	var job Job
	var stage, errorMessage *string
	var configJSON, result []byte

	err := row.Scan(
		&job.ID, &job.HookKey, &job.DemoKey, &job.Bucket, &job.OverlayText, &configJSON, &job.OutputKey,
		&job.Status, &stage, &job.Progress, &errorMessage, &result,
		&job.CreatedAt, &job.UpdatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if stage != nil {
		job.Stage = JobStage(*stage)
	}
	if errorMessage != nil {
		job.ErrorMessage = *errorMessage
	}
	if result != nil {
		job.Result = result
	}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &job.EditConfig); err != nil {
			return nil, fmt.Errorf("failed to decode edit config: %w", err)
		}
	}
	return &job, nil
}

// GetJobWithProgress retrieves a job with its latest progress events
func (s *Store) GetJobWithProgress(ctx context.Context, jobID uuid.UUID, limit int) (*JobWithProgress, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, job_id, stage, progress, message, details, created_at
		FROM progress_events
		WHERE job_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress events: %w", err)
	}
	defer rows.Close()

	var events []ProgressEvent
	for rows.Next() {
		var event ProgressEvent
		var details []byte

		err := rows.Scan(
			&event.ID, &event.JobID, &event.Stage, &event.Progress,
			&event.Message, &details, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress event: %w", err)
		}

		if details != nil {
			event.Details = details
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating progress events: %w", err)
	}

	// Oldest first
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}

	return &JobWithProgress{
		Job:          *job,
		LatestEvents: events,
	}, nil
}

// UpdateJobStatus updates the job status and stage
func (s *Store) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status JobStatus, stage JobStage, progress int) error {
	query := `
		UPDATE composition_jobs
		SET status = $2, stage = $3, progress = $4, updated_at = $5
		WHERE id = $1
	`

	_, err := s.db.Exec(ctx, query, jobID, status, stage, progress, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	return nil
}

// UpdateJobError marks the job failed. The message is stored verbatim.
func (s *Store) UpdateJobError(ctx context.Context, jobID uuid.UUID, errorMessage string) error {
	query := `
		UPDATE composition_jobs
		SET status = $2, stage = $3, error_message = $4, updated_at = $5, completed_at = $5
		WHERE id = $1
	`

	_, err := s.db.Exec(ctx, query, jobID, StatusFailed, StageFailed, errorMessage, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update job error: %w", err)
	}

	return nil
}

// CompleteJob stores the render result and marks the job completed.
func (s *Store) CompleteJob(ctx context.Context, jobID uuid.UUID, result RenderResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `
		UPDATE composition_jobs
		SET status = $2, stage = $3, progress = $4, result = $5,
		    updated_at = $6, completed_at = $6
		WHERE id = $1
	`

	_, err = s.db.Exec(ctx, query,
		jobID, StatusCompleted, StageCompleted, 100, resultJSON, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update job result: %w", err)
	}

	return nil
}

// AddProgressEvent adds a progress event to the database
func (s *Store) AddProgressEvent(ctx context.Context, jobID uuid.UUID, stage JobStage, progress int, message string, details map[string]interface{}) error {
	var detailsJSON []byte
	var err error

	if details != nil {
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to marshal details: %w", err)
		}
	}

	query := `
		INSERT INTO progress_events (job_id, stage, progress, message, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.db.Exec(ctx, query, jobID, stage, progress, message, detailsJSON, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add progress event: %w", err)
	}

	return nil
}

// CleanupOldJobs deletes finished jobs older than the specified duration.
// Progress events go with them through the cascade.
func (s *Store) CleanupOldJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	query := `
		DELETE FROM composition_jobs
		WHERE created_at < $1 AND status IN ($2, $3)
	`

	result, err := s.db.Exec(ctx, query, cutoffTime, StatusCompleted, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old jobs: %w", err)
	}

	return result.RowsAffected(), nil
}
