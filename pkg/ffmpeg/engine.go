package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the wall-clock budget for one engine run.
	DefaultTimeout = 5 * time.Minute

	// waitDelay bounds how long Wait blocks on stderr after the kill.
	waitDelay = 5 * time.Second
)

// Engine runs FFmpeg argument vectors under a fixed timeout.
type Engine struct {
	binary  string
	timeout time.Duration
	logger  *zap.Logger
}

func NewEngine(binary string, timeout time.Duration, logger *zap.Logger) *Engine {
	if binary == "" {
		binary = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{binary: binary, timeout: timeout, logger: logger}
}

// Binary returns the engine executable.
func (e *Engine) Binary() string { return e.binary }

// Run executes one engine process and blocks until it exits. Exit code 0 is
// success. The process group is killed with SIGKILL once the timeout expires;
// there is no graceful stop.
func (e *Engine) Run(ctx context.Context, args []string) error {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	stderr := newTailBuffer(tailCapacity)
	cmd := exec.CommandContext(runCtx, e.binary, args...)
	cmd.Stderr = stderr
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = waitDelay

	e.logger.Debug("Starting ffmpeg",
		zap.String("binary", e.binary),
		zap.Duration("timeout", e.timeout),
		zap.String("args", strings.Join(args, " ")))

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return &EngineStartError{Binary: e.binary, Err: err}
	}
	err := cmd.Wait()
	elapsed := time.Since(started)

	if err == nil {
		e.logger.Debug("ffmpeg finished", zap.Duration("elapsed", elapsed))
		return nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		e.logger.Warn("ffmpeg timed out, process group killed",
			zap.Duration("timeout", e.timeout))
		return &EngineTimeoutError{Timeout: e.timeout, Diagnostic: ExtractDiagnostic(stderr.Lines())}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("ffmpeg interrupted: %w", ctx.Err())
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	diag := ExtractDiagnostic(stderr.Lines())
	e.logger.Warn("ffmpeg failed",
		zap.Int("exit_code", exitCode),
		zap.Duration("elapsed", elapsed),
		zap.String("diagnostic", diag))
	return &EngineExecutionError{ExitCode: exitCode, Diagnostic: diag}
}
