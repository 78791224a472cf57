package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ReelForge/internal/api/handlers"
	"ReelForge/internal/job"
	types "ReelForge/pkg"
	"ReelForge/pkg/compose"
)

func newTestServer(t *testing.T) (*Server, *job.Manager) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	manager := job.NewManager(job.NewMemoryStore(), logger)
	return NewServer(manager, compose.NewCompiler(compose.Options{}), types.ServerConfig{}, logger), manager
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"reelforge","version":"1.0.0"}`, rec.Body.String())
}

func TestCreateAndGetJob(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/jobs", handlers.CreateJobRequest{
		HookKey: "uploads/hook.mp4",
		DemoKey: "uploads/demo.mp4",
		Bucket:  "media",
		Text:    "Wait for it",
		Config: compose.EditConfig{
			HookTrim:   &compose.Trim{StartTime: 1, EndTime: 3},
			Transition: &compose.Transition{Type: compose.TransitionPushUp, DurationMs: 300},
		},
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var created struct {
		JobID  uuid.UUID     `json:"job_id"`
		Status job.JobStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, job.StatusPending, created.Status)

	rec = do(t, s, http.MethodGet, "/jobs/"+created.JobID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got job.JobWithProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "uploads/hook.mp4", got.HookKey)
	assert.Equal(t, "Wait for it", got.OverlayText)
	require.NotNil(t, got.EditConfig.Transition)
	assert.Equal(t, compose.TransitionPushUp, got.EditConfig.Transition.Type)
}

func TestCreateJob_Rejections(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing keys", handlers.CreateJobRequest{HookKey: "a.mp4"}},
		{"inverted trim", handlers.CreateJobRequest{
			HookKey: "a.mp4", DemoKey: "b.mp4",
			Config: compose.EditConfig{DemoTrim: &compose.Trim{StartTime: 4, EndTime: 2}},
		}},
		{"unknown field", map[string]string{"hookKey": "a.mp4", "demoKey": "b.mp4", "colour": "red"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/jobs", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec := do(t, s, http.MethodPost, "/jobs", handlers.CreateJobRequest{
		HookKey: "a.mp4", DemoKey: "b.mp4",
		Config: compose.EditConfig{HookTrim: &compose.Trim{StartTime: 3, EndTime: 3}},
	})
	assert.Contains(t, rec.Body.String(), "invalid hook trim")
}

func TestGetJob_Errors(t *testing.T) {
	s, _ := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/jobs/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/jobs/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/jobs/"+uuid.NewString()+"/stream", nil).Code)
}

func TestCompile(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/compile", handlers.CompileRequest{
		Config: compose.EditConfig{
			HookTrim:    &compose.Trim{StartTime: 2, EndTime: 7},
			Transition:  &compose.Transition{Type: compose.TransitionCrossfade, DurationMs: 500},
			AudioSource: compose.AudioBoth,
		},
		Hook: handlers.ClipInfo{Duration: 10, HasAudio: true},
		Demo: handlers.ClipInfo{Duration: 8, HasAudio: true},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.CompileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 12.5, resp.ExpectedDuration, 1e-9)
	assert.True(t, resp.HasAudio)
	assert.Contains(t, resp.FilterGraph, "xfade=transition=fade:duration=0.500:offset=4.500")
	assert.Equal(t, "output.mp4", resp.Args[len(resp.Args)-1])

	rec = do(t, s, http.MethodPost, "/compile", handlers.CompileRequest{
		Hook: handlers.ClipInfo{Duration: 0},
		Demo: handlers.ClipInfo{Duration: 8},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStream_FinishedJobSendsStatusAndCloses(t *testing.T) {
	ctx := context.Background()
	s, manager := newTestServer(t)
	created, err := manager.CreateJob(ctx, job.NewJobParams{HookKey: "a.mp4", DemoKey: "b.mp4"})
	require.NoError(t, err)
	require.NoError(t, manager.EmitError(ctx, created.ID, "ffmpeg exited with code 1"))

	rec := do(t, s, http.MethodGet, "/jobs/"+created.ID.String()+"/stream", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: status\n"))
	assert.Contains(t, body, `"error":"ffmpeg exited with code 1"`)
}

func TestStream_LiveUpdates(t *testing.T) {
	ctx := context.Background()
	s, manager := newTestServer(t)
	created, err := manager.CreateJob(ctx, job.NewJobParams{HookKey: "a.mp4", DemoKey: "b.mp4"})
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/jobs/" + created.ID.String() + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	reader := bufio.NewReader(resp.Body)

	readEvent := func() string {
		t.Helper()
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		// data line and blank separator
		_, err = reader.ReadString('\n')
		require.NoError(t, err)
		_, err = reader.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimSpace(line)
	}

	assert.Equal(t, "event: status", readEvent())

	require.NoError(t, manager.EmitProgress(ctx, created.ID, job.StageRendering, 45, "Rendering composition", nil))
	assert.Equal(t, "event: progress", readEvent())

	require.NoError(t, manager.CompleteJob(ctx, created.ID, job.RenderResult{OutputKey: "out.mp4"}))
	assert.Equal(t, "event: progress", readEvent())
	assert.Equal(t, "event: complete", readEvent())

	done := make(chan struct{})
	go func() {
		_, err := reader.ReadString('\n')
		assert.Error(t, err)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after completion")
	}
}
