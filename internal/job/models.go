package job

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"ReelForge/pkg/compose"
)

// ErrJobNotFound is returned (wrapped) when no job has the requested ID.
var ErrJobNotFound = errors.New("job not found")

// JobStatus represents the current status of a job
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// JobStage represents the current processing stage
type JobStage string

const (
	StageQueued         JobStage = "queued"
	StageDownloading    JobStage = "downloading"
	StageProbing        JobStage = "probing"
	StageCompiling      JobStage = "compiling"
	StageRendering      JobStage = "rendering"
	StageVerifying      JobStage = "verifying"
	StagePostProcessing JobStage = "post_processing"
	StageUploading      JobStage = "uploading"
	StageCompleted      JobStage = "completed"
	StageFailed         JobStage = "failed"
)

// Job is one hook + demo composition request and its lifecycle state.
type Job struct {
	ID           uuid.UUID          `json:"id"`
	HookKey      string             `json:"hook_key"`
	DemoKey      string             `json:"demo_key"`
	Bucket       string             `json:"bucket"`
	OverlayText  string             `json:"overlay_text,omitempty"`
	EditConfig   compose.EditConfig `json:"edit_config"`
	OutputKey    string             `json:"output_key"`
	Status       JobStatus          `json:"status"`
	Stage        JobStage           `json:"stage,omitempty"`
	Progress     int                `json:"progress"`
	ErrorMessage string             `json:"error_message,omitempty"`
	Result       json.RawMessage    `json:"result,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	StartedAt    *time.Time         `json:"started_at,omitempty"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
}

// NewJobParams are the caller-supplied fields of a job.
type NewJobParams struct {
	HookKey     string
	DemoKey     string
	Bucket      string
	OverlayText string
	EditConfig  compose.EditConfig
	OutputKey   string
}

// RenderResult is stored on the job once the composition is uploaded.
type RenderResult struct {
	OutputKey        string   `json:"output_key"`
	ExpectedDuration float64  `json:"expected_duration"`
	ActualDuration   float64  `json:"actual_duration,omitempty"`
	HasAudio         bool     `json:"has_audio"`
	Transition       string   `json:"transition"`
	Plugins          []string `json:"plugins,omitempty"`
}

// ProgressEvent represents a single progress update event
type ProgressEvent struct {
	ID        int64           `json:"id"`
	JobID     uuid.UUID       `json:"job_id"`
	Stage     JobStage        `json:"stage"`
	Progress  int             `json:"progress"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// JobWithProgress combines job info with recent progress events
type JobWithProgress struct {
	Job
	LatestEvents []ProgressEvent `json:"latest_events"`
}

// ProgressUpdate represents a progress update to be broadcast via SSE
type ProgressUpdate struct {
	JobID     uuid.UUID              `json:"job_id"`
	Stage     JobStage               `json:"stage"`
	Progress  int                    `json:"progress"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Terminal reports whether the update ends the job's stream.
func (u ProgressUpdate) Terminal() bool {
	return u.Stage == StageCompleted || u.Stage == StageFailed
}
