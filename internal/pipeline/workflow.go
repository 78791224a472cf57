package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ReelForge/internal/job"
	"ReelForge/pkg/compose"
)

// Inputs are the probed clips of a prepared job.
type Inputs struct {
	Hook compose.Input `json:"hook"`
	Demo compose.Input `json:"demo"`
}

// RenderOutcome describes a rendered, post-processed composition awaiting upload.
type RenderOutcome struct {
	FilePath         string   `json:"file_path"`
	ExpectedDuration float64  `json:"expected_duration"`
	ActualDuration   float64  `json:"actual_duration"`
	HasAudio         bool     `json:"has_audio"`
	Transition       string   `json:"transition"`
	Plugins          []string `json:"plugins,omitempty"`
}

// Workflow runs one composition job end to end: download, probe, compile,
// render, verify, post-process, upload.
type Workflow struct {
	manager  *job.Manager
	fetcher  *Fetcher
	prober   Prober
	compiler *compose.Compiler
	engine   Runner
	verifier *Verifier
	plugins  *PluginProcessor
	workDir  string
	logger   *zap.Logger
}

func NewWorkflow(manager *job.Manager, fetcher *Fetcher, prober Prober, compiler *compose.Compiler, engine Runner, verifier *Verifier, plugins *PluginProcessor, workDir string, logger *zap.Logger) *Workflow {
	return &Workflow{
		manager:  manager,
		fetcher:  fetcher,
		prober:   prober,
		compiler: compiler,
		engine:   engine,
		verifier: verifier,
		plugins:  plugins,
		workDir:  workDir,
		logger:   logger,
	}
}

// Run processes j and records its completion. The workspace is removed on
// every path. Failures are returned, not recorded; the caller owns EmitError.
func (w *Workflow) Run(ctx context.Context, j *job.Job) (job.RenderResult, error) {
	start := time.Now()

	ws, err := w.Workspace(j)
	if err != nil {
		return job.RenderResult{}, err
	}
	defer w.Cleanup(ws)

	inputs, err := w.Prepare(ctx, j, ws)
	if err != nil {
		return job.RenderResult{}, err
	}
	outcome, err := w.Render(ctx, j, ws, inputs)
	if err != nil {
		return job.RenderResult{}, err
	}
	result, err := w.Store(ctx, j, outcome)
	if err != nil {
		return job.RenderResult{}, err
	}

	w.logger.Info("Composition finished",
		zap.String("job_id", j.ID.String()),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// Prepare downloads both clips into ws and probes them.
func (w *Workflow) Prepare(ctx context.Context, j *job.Job, ws *Workspace) (Inputs, error) {
	if err := w.emit(ctx, j, job.StageDownloading, 10, "Downloading hook and demo clips", nil); err != nil {
		return Inputs{}, err
	}
	if err := w.fetcher.FetchInputs(ctx, ws, j.Bucket, j.HookKey, j.DemoKey); err != nil {
		return Inputs{}, err
	}

	if err := w.emit(ctx, j, job.StageProbing, 25, "Probing clips", nil); err != nil {
		return Inputs{}, err
	}
	hook, demo := w.prober.ProbePair(ctx, ws.HookPath(), ws.DemoPath())

	return Inputs{
		Hook: compose.Input{Path: ws.HookPath(), Duration: hook.Duration, HasAudio: hook.HasAudio},
		Demo: compose.Input{Path: ws.DemoPath(), Duration: demo.Duration, HasAudio: demo.HasAudio},
	}, nil
}

// Render compiles the edit, runs the engine, verifies the output and applies
// the enabled plugins.
func (w *Workflow) Render(ctx context.Context, j *job.Job, ws *Workspace, inputs Inputs) (*RenderOutcome, error) {
	if err := w.emit(ctx, j, job.StageCompiling, 35, "Compiling filter graph", nil); err != nil {
		return nil, err
	}
	program, err := w.compiler.Compile(compose.Request{
		Hook:       inputs.Hook,
		Demo:       inputs.Demo,
		Text:       j.OverlayText,
		Config:     j.EditConfig,
		OutputPath: ws.OutputPath(),
	})
	if err != nil {
		return nil, err
	}
	w.logger.Debug("Compiled filter graph", zap.String("job_id", j.ID.String()), zap.String("filter_graph", program.FilterGraph))

	transition := transitionName(program.Transition)
	details := map[string]interface{}{
		"expected_duration": program.ExpectedDuration,
		"transition":        transition,
		"has_audio":         program.HasAudio,
	}
	if err := w.emit(ctx, j, job.StageRendering, 45, "Rendering composition", details); err != nil {
		return nil, err
	}
	if err := w.engine.Run(ctx, program.Args); err != nil {
		return nil, err
	}

	if err := w.emit(ctx, j, job.StageVerifying, 80, "Verifying output", nil); err != nil {
		return nil, err
	}
	verification := w.verifier.Verify(ctx, ws.OutputPath(), program.ExpectedDuration)

	outcome := &RenderOutcome{
		FilePath:         ws.OutputPath(),
		ExpectedDuration: program.ExpectedDuration,
		ActualDuration:   verification.Actual,
		HasAudio:         program.HasAudio,
		Transition:       transition,
	}

	if w.plugins != nil {
		if err := w.emit(ctx, j, job.StagePostProcessing, 85, "Running plugins", nil); err != nil {
			return nil, err
		}
		run, err := w.plugins.Process(ctx, j.ID, ws.Dir, outcome.FilePath)
		if err != nil {
			return nil, err
		}
		outcome.FilePath = run.FilePath
		outcome.Plugins = run.Applied
	}
	return outcome, nil
}

// Store uploads the rendered file and marks the job completed.
func (w *Workflow) Store(ctx context.Context, j *job.Job, outcome *RenderOutcome) (job.RenderResult, error) {
	key := OutputKey(j)
	if err := w.emit(ctx, j, job.StageUploading, 90, "Uploading composition", map[string]interface{}{"output_key": key}); err != nil {
		return job.RenderResult{}, err
	}
	if err := w.fetcher.Upload(ctx, outcome.FilePath, j.Bucket, key); err != nil {
		return job.RenderResult{}, err
	}

	result := job.RenderResult{
		OutputKey:        key,
		ExpectedDuration: outcome.ExpectedDuration,
		ActualDuration:   outcome.ActualDuration,
		HasAudio:         outcome.HasAudio,
		Transition:       outcome.Transition,
		Plugins:          outcome.Plugins,
	}
	if err := w.manager.CompleteJob(ctx, j.ID, result); err != nil {
		return job.RenderResult{}, fmt.Errorf("failed to complete job: %w", err)
	}
	return result, nil
}

// Workspace creates, or reopens, the scratch directory of j.
func (w *Workflow) Workspace(j *job.Job) (*Workspace, error) {
	return NewWorkspace(w.workDir, j.ID)
}

func (w *Workflow) Cleanup(ws *Workspace) {
	if err := ws.Remove(); err != nil {
		w.logger.Warn("Failed to remove workspace", zap.String("dir", ws.Dir), zap.Error(err))
	}
}

func (w *Workflow) emit(ctx context.Context, j *job.Job, stage job.JobStage, progress int, message string, details map[string]interface{}) error {
	if err := w.manager.EmitProgress(ctx, j.ID, stage, progress, message, details); err != nil {
		return fmt.Errorf("failed to record %s stage: %w", stage, err)
	}
	return nil
}

// OutputKey is the storage key of a job's composition.
func OutputKey(j *job.Job) string {
	if j.OutputKey != "" {
		return j.OutputKey
	}
	return fmt.Sprintf("compositions/%s.mp4", j.ID)
}

func transitionName(plan compose.TransitionPlan) string {
	if plan.Concat {
		return "cut"
	}
	return plan.Name
}
