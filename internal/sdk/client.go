package sdk

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ReelForge/internal/config"
	"ReelForge/internal/pipeline"
	"ReelForge/pkg/compose"
	"ReelForge/pkg/ffmpeg"
)

// Client composes local files directly, without the job queue.
type Client struct {
	engine   pipeline.Runner
	prober   pipeline.Prober
	compiler *compose.Compiler
	verifier *pipeline.Verifier
	logger   *zap.Logger
}

func NewClient(engine pipeline.Runner, prober pipeline.Prober, compiler *compose.Compiler, logger *zap.Logger) *Client {
	return &Client{
		engine:   engine,
		prober:   prober,
		compiler: compiler,
		verifier: pipeline.NewVerifier(prober, 0, logger),
		logger:   logger,
	}
}

// NewClientFromConfig wires the real ffmpeg and ffprobe binaries.
func NewClientFromConfig(cfg *config.Config, logger *zap.Logger) *Client {
	prober := ffmpeg.NewProber(cfg.Pipeline.FFprobePath, logger)
	c := NewClient(
		ffmpeg.NewEngine(cfg.Pipeline.FFmpegPath, cfg.EngineTimeout(), logger),
		prober,
		compose.NewCompiler(cfg.CompilerOptions()),
		logger,
	)
	c.verifier = pipeline.NewVerifier(prober, cfg.Pipeline.DriftTolerance, logger)
	return c
}

type ComposeRequest struct {
	HookPath   string
	DemoPath   string
	OutputPath string
	Text       string
	Config     compose.EditConfig
}

type ComposeResult struct {
	Program        *compose.Program
	ActualDuration float64
}

// Plan probes both clips and compiles the edit without running the engine.
func (c *Client) Plan(ctx context.Context, req ComposeRequest) (*compose.Program, error) {
	if req.HookPath == "" || req.DemoPath == "" || req.OutputPath == "" {
		return nil, fmt.Errorf("hook, demo and output paths are required")
	}
	hook, demo := c.prober.ProbePair(ctx, req.HookPath, req.DemoPath)
	return c.compiler.Compile(compose.Request{
		Hook:       compose.Input{Path: req.HookPath, Duration: hook.Duration, HasAudio: hook.HasAudio},
		Demo:       compose.Input{Path: req.DemoPath, Duration: demo.Duration, HasAudio: demo.HasAudio},
		Text:       req.Text,
		Config:     req.Config,
		OutputPath: req.OutputPath,
	})
}

// Compose plans and renders the composition to req.OutputPath.
func (c *Client) Compose(ctx context.Context, req ComposeRequest) (*ComposeResult, error) {
	program, err := c.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.engine.Run(ctx, program.Args); err != nil {
		return nil, err
	}
	verification := c.verifier.Verify(ctx, req.OutputPath, program.ExpectedDuration)
	c.logger.Info("Composition rendered",
		zap.String("output", req.OutputPath),
		zap.Float64("expected_duration", program.ExpectedDuration),
	)
	return &ComposeResult{Program: program, ActualDuration: verification.Actual}, nil
}
