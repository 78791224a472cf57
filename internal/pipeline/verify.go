package pipeline

import (
	"context"
	"math"

	"go.uber.org/zap"

	"ReelForge/pkg/ffmpeg"
)

// DefaultDriftTolerance is the allowed gap, in seconds, between the expected
// and the probed output duration.
const DefaultDriftTolerance = 0.5

// Runner executes one engine invocation.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

// Prober reads clip metadata. Probe failures are folded into defaults.
type Prober interface {
	Probe(ctx context.Context, path string) ffmpeg.ProbeResult
	ProbePair(ctx context.Context, hookPath, demoPath string) (hook, demo ffmpeg.ProbeResult)
}

type Verification struct {
	Expected float64
	Actual   float64
	Drift    float64
	// Probed is false when the output could not be probed.
	Probed bool
}

func (v Verification) WithinTolerance(tolerance float64) bool {
	return !v.Probed || v.Drift <= tolerance
}

// Verifier probes rendered outputs and reports duration drift. It logs and
// never fails a job.
type Verifier struct {
	prober    Prober
	tolerance float64
	logger    *zap.Logger
}

func NewVerifier(prober Prober, tolerance float64, logger *zap.Logger) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultDriftTolerance
	}
	return &Verifier{prober: prober, tolerance: tolerance, logger: logger}
}

func (v *Verifier) Verify(ctx context.Context, outputPath string, expected float64) Verification {
	probe := v.prober.Probe(ctx, outputPath)
	if probe.Fallback {
		v.logger.Warn("Could not probe rendered output", zap.String("path", outputPath))
		return Verification{Expected: expected}
	}

	result := Verification{
		Expected: expected,
		Actual:   probe.Duration,
		Drift:    math.Abs(probe.Duration - expected),
		Probed:   true,
	}
	if !result.WithinTolerance(v.tolerance) {
		v.logger.Warn("Output duration drift",
			zap.String("path", outputPath),
			zap.Float64("expected", expected),
			zap.Float64("actual", probe.Duration),
			zap.Float64("tolerance", v.tolerance),
		)
	}
	return result
}
