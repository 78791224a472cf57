package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ReelForge/internal/job"
)

const heartbeatInterval = 15 * time.Second

// StreamHandler streams job progress as Server-Sent Events.
type StreamHandler struct {
	jobManager *job.Manager
	logger     *zap.Logger
	heartbeat  time.Duration
}

func NewStreamHandler(jobManager *job.Manager, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		jobManager: jobManager,
		logger:     logger,
		heartbeat:  heartbeatInterval,
	}
}

func (h *StreamHandler) StreamProgress(w http.ResponseWriter, r *http.Request) {
	jobID, ok := parseJobID(w, r, h.logger)
	if !ok {
		return
	}

	// Subscribe before reading the job so no update between the two is lost.
	progressChan := h.jobManager.Subscribe(jobID)
	defer h.jobManager.Unsubscribe(jobID, progressChan)

	existing, err := h.jobManager.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get job", http.StatusInternalServerError)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("Streaming not supported - ResponseWriter does not implement http.Flusher")
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	// Disable proxy buffering (nginx).
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Info("SSE stream established", zap.String("job_id", jobID.String()), zap.String("remote_addr", r.RemoteAddr))

	status := map[string]interface{}{
		"job_id":   existing.ID.String(),
		"status":   existing.Status,
		"stage":    existing.Stage,
		"progress": existing.Progress,
	}
	if existing.ErrorMessage != "" {
		status["error"] = existing.ErrorMessage
	}
	if err := writeSSEEvent(w, flusher, "status", status); err != nil {
		return
	}
	if existing.Status == job.StatusCompleted || existing.Status == job.StatusFailed {
		return
	}

	h.streamEventLoop(r.Context(), w, flusher, jobID, progressChan)
}

func (h *StreamHandler) streamEventLoop(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, jobID uuid.UUID, progressChan <-chan job.ProgressUpdate) {
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("Client disconnected", zap.String("job_id", jobID.String()))
			return

		case update, ok := <-progressChan:
			if !ok {
				return
			}
			msg, err := job.FormatSSEMessage(update)
			if err == nil {
				_, err = fmt.Fprint(w, msg)
			}
			if err != nil {
				h.logger.Warn("Failed to send progress update", zap.String("job_id", jobID.String()), zap.Error(err))
				return
			}
			flusher.Flush()
			if update.Terminal() {
				event := "complete"
				if update.Stage == job.StageFailed {
					event = "error"
				}
				if err := writeSSEEvent(w, flusher, event, update); err != nil {
					h.logger.Warn("Failed to send final event", zap.String("job_id", jobID.String()), zap.Error(err))
				}
				return
			}

		case <-heartbeat.C:
			// Comment lines keep idle proxies from closing the stream.
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return fmt.Errorf("failed to write SSE event: %w", err)
	}
	flusher.Flush()
	return nil
}
