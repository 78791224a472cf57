package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultProbeDuration is reported when a file cannot be probed.
	DefaultProbeDuration = 5.0

	probeTimeout = 30 * time.Second
)

// ProbeResult is what the compiler needs to know about one input.
type ProbeResult struct {
	Duration float64 `json:"duration"`
	HasAudio bool    `json:"hasAudio"`
	// Fallback is set when the defaults were substituted.
	Fallback bool `json:"-"`
}

// Prober reads durations and stream layout with ffprobe.
type Prober struct {
	binary string
	logger *zap.Logger
}

func NewProber(binary string, logger *zap.Logger) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{binary: binary, logger: logger}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

// Probe never fails: any problem is logged and the defaults (5.0s, no audio)
// are returned instead.
func (p *Prober) Probe(ctx context.Context, path string) ProbeResult {
	res, err := p.probe(ctx, path)
	if err != nil {
		p.logger.Warn("Probe failed, using defaults",
			zap.String("path", path),
			zap.Float64("duration", DefaultProbeDuration),
			zap.Error(err))
		return ProbeResult{Duration: DefaultProbeDuration, Fallback: true}
	}
	return res
}

func (p *Prober) probe(ctx context.Context, path string) (ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-show_entries", "format=duration:stream=codec_type",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return ProbeResult{}, fmt.Errorf("decode ffprobe output: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(parsed.Format.Duration), 64)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("parse duration %q: %w", parsed.Format.Duration, err)
	}
	if duration <= 0 {
		return ProbeResult{}, fmt.Errorf("non-positive duration %v", duration)
	}

	res := ProbeResult{Duration: duration}
	for _, s := range parsed.Streams {
		if s.CodecType == "audio" {
			res.HasAudio = true
			break
		}
	}
	return res, nil
}

// ProbePair probes the hook and demo clips concurrently.
func (p *Prober) ProbePair(ctx context.Context, hookPath, demoPath string) (hook, demo ProbeResult) {
	// Probe never fails; the group only joins the two calls.
	var g errgroup.Group
	g.Go(func() error {
		hook = p.Probe(ctx, hookPath)
		return nil
	})
	g.Go(func() error {
		demo = p.Probe(ctx, demoPath)
		return nil
	})
	_ = g.Wait()
	return hook, demo
}
