package ffmpeg

import (
	"errors"
	"fmt"
	"time"
)

// EngineStartError means the engine process could not be launched at all.
type EngineStartError struct {
	Binary string
	Err    error
}

func (e *EngineStartError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Binary, e.Err)
}

func (e *EngineStartError) Unwrap() error { return e.Err }

// EngineTimeoutError means the engine exceeded its wall-clock budget and its
// process group was killed.
type EngineTimeoutError struct {
	Timeout    time.Duration
	Diagnostic string
}

func (e *EngineTimeoutError) Error() string {
	msg := fmt.Sprintf("ffmpeg timed out after %s", e.Timeout)
	if e.Diagnostic != "" {
		msg += ": " + e.Diagnostic
	}
	return msg
}

// EngineExecutionError is a non-zero engine exit. Diagnostic is extracted
// from stderr and bounded in length.
type EngineExecutionError struct {
	ExitCode   int
	Diagnostic string
}

func (e *EngineExecutionError) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, e.Diagnostic)
}

// Result is the persisted outcome of one engine run.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ResultOf converts a Run error into a Result.
func ResultOf(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	return Result{Error: err.Error()}
}

// IsTimeout reports whether err is or wraps an EngineTimeoutError.
func IsTimeout(err error) bool {
	var te *EngineTimeoutError
	return errors.As(err, &te)
}
