package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ReelForge/internal/job"
	"ReelForge/internal/pipeline/storage"
	types "ReelForge/pkg"
	"ReelForge/pkg/compose"
	"ReelForge/pkg/ffmpeg"
	"ReelForge/pkg/plugin"
)

// fakeEngine records invocations and writes the output file named by the
// last argument.
type fakeEngine struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (e *fakeEngine) Run(_ context.Context, args []string) error {
	e.mu.Lock()
	e.calls = append(e.calls, args)
	e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	return os.WriteFile(args[len(args)-1], []byte("rendered"), 0644)
}

func (e *fakeEngine) Calls() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.calls...)
}

// fakeProber answers by file base name; unknown files fall back to defaults.
type fakeProber struct {
	results map[string]ffmpeg.ProbeResult
}

func (p *fakeProber) Probe(_ context.Context, path string) ffmpeg.ProbeResult {
	if r, ok := p.results[filepath.Base(path)]; ok {
		return r
	}
	return ffmpeg.ProbeResult{Duration: ffmpeg.DefaultProbeDuration, Fallback: true}
}

func (p *fakeProber) ProbePair(ctx context.Context, hookPath, demoPath string) (ffmpeg.ProbeResult, ffmpeg.ProbeResult) {
	return p.Probe(ctx, hookPath), p.Probe(ctx, demoPath)
}

func defaultProber() *fakeProber {
	return &fakeProber{results: map[string]ffmpeg.ProbeResult{
		"hook.mp4":   {Duration: 10, HasAudio: true},
		"demo.mp4":   {Duration: 8, HasAudio: true},
		"output.mp4": {Duration: 12.5, HasAudio: true},
	}}
}

type harness struct {
	manager  *job.Manager
	store    *job.MemoryStore
	storage  *storage.LocalStorage
	engine   *fakeEngine
	workflow *Workflow
	workDir  string
	logger   *zap.Logger
}

func newHarness(t *testing.T, plugins *PluginProcessor) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)

	st, err := storage.NewLocalStorage(types.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	store := job.NewMemoryStore()
	manager := job.NewManager(store, logger)
	engine := &fakeEngine{}
	prober := defaultProber()
	workDir := t.TempDir()
	retry := types.RetryConfig{MaxAttempts: 2, InitialIntervalSec: 0.001, BackoffCoefficient: 1}

	wf := NewWorkflow(
		manager,
		NewFetcher(st, retry, logger),
		prober,
		compose.NewCompiler(compose.Options{}),
		engine,
		NewVerifier(prober, 0, logger),
		plugins,
		workDir,
		logger,
	)
	return &harness{manager: manager, store: store, storage: st, engine: engine, workflow: wf, workDir: workDir, logger: logger}
}

func (h *harness) seedInputs(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.storage.Upload(ctx, "media", "uploads/hook.mp4", strings.NewReader("hook")))
	require.NoError(t, h.storage.Upload(ctx, "media", "uploads/demo.mp4", strings.NewReader("demo")))
}

func (h *harness) createJob(t *testing.T, params job.NewJobParams) *job.Job {
	t.Helper()
	j, err := h.manager.CreateJob(context.Background(), params)
	require.NoError(t, err)
	return j
}

func sampleJobParams() job.NewJobParams {
	return job.NewJobParams{
		HookKey:     "uploads/hook.mp4",
		DemoKey:     "uploads/demo.mp4",
		Bucket:      "media",
		OverlayText: "Wait for it",
		EditConfig: compose.EditConfig{
			HookTrim:    &compose.Trim{StartTime: 2, EndTime: 7},
			Transition:  &compose.Transition{Type: compose.TransitionCrossfade, DurationMs: 500},
			AudioSource: compose.AudioBoth,
		},
		OutputKey: "renders/out.mp4",
	}
}

type stubPlugin struct {
	name   string
	suffix string
	err    error
}

func (p stubPlugin) Name() string { return p.name }

func (p stubPlugin) Execute(_ context.Context, in plugin.PluginInput) (plugin.PluginOutput, error) {
	if p.err != nil {
		return plugin.PluginOutput{}, p.err
	}
	out := filepath.Join(in.WorkDir, strings.TrimSuffix(filepath.Base(in.FilePath), ".mp4")+p.suffix+".mp4")
	if err := os.WriteFile(out, []byte(p.name), 0644); err != nil {
		return plugin.PluginOutput{}, err
	}
	return plugin.PluginOutput{FilePath: out}, nil
}

func (p stubPlugin) Validate(config map[string]interface{}) error {
	if _, bad := config["invalid"]; bad {
		return os.ErrInvalid
	}
	return nil
}
