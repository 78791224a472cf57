package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ReelForge/internal/job"
	"ReelForge/pkg/compose"
	"ReelForge/pkg/ffmpeg"
)

// JobsHandler creates composition jobs and reports their status.
type JobsHandler struct {
	jobManager *job.Manager
	compiler   *compose.Compiler
	logger     *zap.Logger
}

func NewJobsHandler(jobManager *job.Manager, compiler *compose.Compiler, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{
		jobManager: jobManager,
		compiler:   compiler,
		logger:     logger,
	}
}

type CreateJobRequest struct {
	HookKey   string             `json:"hookKey"`
	DemoKey   string             `json:"demoKey"`
	Bucket    string             `json:"bucket"`
	Text      string             `json:"text"`
	OutputKey string             `json:"outputKey"`
	Config    compose.EditConfig `json:"config"`
}

// Create validates the edit by compiling it against placeholder clips and
// queues the job. Invalid trims are rejected before anything is persisted.
func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.HookKey == "" || req.DemoKey == "" {
		http.Error(w, "hookKey and demoKey are required", http.StatusBadRequest)
		return
	}

	placeholder := compose.Input{Duration: ffmpeg.DefaultProbeDuration, HasAudio: true}
	if _, err := h.compiler.Compile(compose.Request{
		Hook:       placeholder,
		Demo:       placeholder,
		Text:       req.Text,
		Config:     req.Config,
		OutputPath: "output.mp4",
	}); err != nil {
		h.logger.Warn("Rejected edit config", zap.Error(err))
		http.Error(w, err.Error(), compileStatus(err))
		return
	}

	created, err := h.jobManager.CreateJob(r.Context(), job.NewJobParams{
		HookKey:     req.HookKey,
		DemoKey:     req.DemoKey,
		Bucket:      req.Bucket,
		OverlayText: req.Text,
		EditConfig:  req.Config,
		OutputKey:   req.OutputKey,
	})
	if err != nil {
		h.logger.Error("Failed to create job", zap.Error(err))
		http.Error(w, "Failed to create job", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  created.ID,
		"status":  created.Status,
		"message": "Composition queued",
	})
}

// GetJob returns the job with its latest progress events.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := parseJobID(w, r, h.logger)
	if !ok {
		return
	}

	jobWithProgress, err := h.jobManager.GetJobWithProgress(r.Context(), jobID, 10)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to get job", zap.String("job_id", jobID.String()), zap.Error(err))
		http.Error(w, "Failed to get job", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, jobWithProgress)
}
