package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Repository, used when no database DSN is
// configured and in tests.
type MemoryStore struct {
	mu     sync.Mutex
	jobs   map[uuid.UUID]*Job
	events map[uuid.UUID][]ProgressEvent
	order  []uuid.UUID
	nextID int64
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:   make(map[uuid.UUID]*Job),
		events: make(map[uuid.UUID][]ProgressEvent),
		now:    time.Now,
	}
}

var _ Repository = (*MemoryStore)(nil)
var _ Repository = (*Store)(nil)

func (s *MemoryStore) CreateJob(_ context.Context, params NewJobParams) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
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
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	copied := *job
	return &copied, nil
}

func (s *MemoryStore) GetJob(_ context.Context, jobID uuid.UUID) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	copied := *job
	return &copied, nil
}

func (s *MemoryStore) GetJobWithProgress(ctx context.Context, jobID uuid.UUID, limit int) (*JobWithProgress, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events[jobID]
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	return &JobWithProgress{Job: *job, LatestEvents: append([]ProgressEvent(nil), events...)}, nil
}

func (s *MemoryStore) ClaimNextJob(_ context.Context) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var job *Job
	for _, id := range s.order {
		if j, ok := s.jobs[id]; ok && j.Status == StatusPending {
			job = j
			break
		}
	}
	if job == nil {
		return nil, nil
	}

	now := s.now()
	job.Status = StatusProcessing
	job.Stage = StageDownloading
	job.Progress = 0
	job.StartedAt = &now
	job.UpdatedAt = now
	copied := *job
	return &copied, nil
}

func (s *MemoryStore) UpdateJobStatus(_ context.Context, jobID uuid.UUID, status JobStatus, stage JobStage, progress int) error {
	return s.update(jobID, func(j *Job) {
		j.Status, j.Stage, j.Progress = status, stage, progress
	})
}

func (s *MemoryStore) UpdateJobError(_ context.Context, jobID uuid.UUID, errorMessage string) error {
	return s.update(jobID, func(j *Job) {
		now := s.now()
		j.Status, j.Stage, j.ErrorMessage = StatusFailed, StageFailed, errorMessage
		j.CompletedAt = &now
	})
}

func (s *MemoryStore) CompleteJob(_ context.Context, jobID uuid.UUID, result RenderResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return s.update(jobID, func(j *Job) {
		now := s.now()
		j.Status, j.Stage, j.Progress, j.Result = StatusCompleted, StageCompleted, 100, data
		j.CompletedAt = &now
	})
}

func (s *MemoryStore) AddProgressEvent(_ context.Context, jobID uuid.UUID, stage JobStage, progress int, message string, details map[string]interface{}) error {
	var raw json.RawMessage
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to marshal details: %w", err)
		}
		raw = data
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	s.nextID++
	s.events[jobID] = append(s.events[jobID], ProgressEvent{
		ID:        s.nextID,
		JobID:     jobID,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
		Details:   raw,
		CreatedAt: s.now(),
	})
	return nil
}

func (s *MemoryStore) CleanupOldJobs(_ context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)
	var n int64
	for id, j := range s.jobs {
		finished := j.Status == StatusCompleted || j.Status == StatusFailed
		if finished && j.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			delete(s.events, id)
			n++
		}
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.jobs[id]; ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return n, nil
}

func (s *MemoryStore) update(jobID uuid.UUID, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	fn(job)
	job.UpdatedAt = s.now()
	return nil
}
