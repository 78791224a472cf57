package compose

import (
	"fmt"
	"strconv"
)

// Options are the render settings fixed at construction time.
type Options struct {
	Fonts        Fonts
	VideoCodec   string
	Preset       string
	CRF          int
	AudioCodec   string
	AudioBitrate string
	LogLevel     string
}

// DefaultOptions returns the settings used when a field is left empty.
func DefaultOptions() Options {
	return Options{
		Fonts: Fonts{
			Regular: "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			Bold:    "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
		},
		VideoCodec:   "libx264",
		Preset:       "veryfast",
		CRF:          23,
		AudioCodec:   "aac",
		AudioBitrate: "128k",
		LogLevel:     "error",
	}
}

// WithDefaults fills empty fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Fonts.Regular == "" {
		o.Fonts.Regular = d.Fonts.Regular
	}
	if o.Fonts.Bold == "" {
		o.Fonts.Bold = d.Fonts.Bold
	}
	if o.VideoCodec == "" {
		o.VideoCodec = d.VideoCodec
	}
	if o.Preset == "" {
		o.Preset = d.Preset
	}
	if o.CRF <= 0 {
		o.CRF = d.CRF
	}
	if o.AudioCodec == "" {
		o.AudioCodec = d.AudioCodec
	}
	if o.AudioBitrate == "" {
		o.AudioBitrate = d.AudioBitrate
	}
	if o.LogLevel == "" {
		o.LogLevel = d.LogLevel
	}
	return o
}

// Input is one probed source clip.
type Input struct {
	Path     string
	Duration float64
	HasAudio bool
}

// Request is everything needed to compile one composition.
type Request struct {
	Hook       Input
	Demo       Input
	Text       string
	Config     EditConfig
	OutputPath string
}

// Program is a compiled engine invocation. Args does not include the binary.
type Program struct {
	Args             []string
	FilterGraph      string
	Timing           Timing
	Transition       TransitionPlan
	HasAudio         bool
	ExpectedDuration float64
}

// Compiler turns edit configurations into engine programs. It holds no
// per-job state and is safe for concurrent use.
type Compiler struct {
	opts Options
}

func NewCompiler(opts Options) *Compiler {
	return &Compiler{opts: opts.WithDefaults()}
}

// Compile resolves timing, builds the filter graph and the argument vector.
func (c *Compiler) Compile(req Request) (*Program, error) {
	timing, err := ResolveTiming(req.Config, req.Hook.Duration, req.Demo.Duration)
	if err != nil {
		return nil, err
	}
	transition := PlanTransition(req.Config.Transition, timing.HookDuration)

	graph, hasAudio := c.buildGraph(req, timing, transition)
	filterGraph, err := graph.Build()
	if err != nil {
		return nil, err
	}

	return &Program{
		Args:             c.buildArgs(req, timing, filterGraph, graph.Outputs(), hasAudio),
		FilterGraph:      filterGraph,
		Timing:           timing,
		Transition:       transition,
		HasAudio:         hasAudio,
		ExpectedDuration: transition.OutputDuration(timing),
	}, nil
}

// buildGraph adds chains in their fixed order: hook video, demo video, clip
// audio, video join, audio combine.
func (c *Compiler) buildGraph(req Request, t Timing, tr TransitionPlan) (*Graph, bool) {
	g := NewGraph(2)

	hookFilters := append(normalizeFilters(), nonEmpty(
		EffectFilter(req.Config.HookEffect, FrameCount(t.HookDuration)),
		TextOverlayFilter(req.Text, req.Config.TextStyle, req.Config.TextPosition, t.HookDuration, c.opts.Fonts),
	)...)
	hookVideo := g.Pad("v")
	g.Add([]Label{Stream{Input: 0, Kind: "v"}}, hookFilters, hookVideo)

	demoFilters := append(normalizeFilters(), nonEmpty(
		EffectFilter(req.Config.DemoEffect, FrameCount(t.DemoDuration)),
	)...)
	demoVideo := g.Pad("v")
	g.Add([]Label{Stream{Input: 1, Kind: "v"}}, demoFilters, demoVideo)

	pads, hasAudio := addClipAudios(g, req.Config.AudioSource, AudioPresence{
		Hook: req.Hook.HasAudio,
		Demo: req.Demo.HasAudio,
	}, t)

	outVideo := g.Named("outv")
	g.Add([]Label{hookVideo, demoVideo}, []string{tr.Filter()}, outVideo)
	g.Map(outVideo)

	if hasAudio {
		outAudio := g.Named("outa")
		combineAudio(g, pads, t, outAudio)
		g.Map(outAudio)
	}
	return g, hasAudio
}

// normalizeFilters bring any source to the canonical frame before effects.
func normalizeFilters() []string {
	return []string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase", CanonicalWidth, CanonicalHeight),
		fmt.Sprintf("crop=%d:%d", CanonicalWidth, CanonicalHeight),
		"setsar=1",
		fmt.Sprintf("fps=%d", CanonicalFPS),
		"setpts=PTS-STARTPTS",
		"format=yuv420p",
	}
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Compiler) buildArgs(req Request, t Timing, filterGraph string, outputs []Pad, hasAudio bool) []string {
	args := make([]string, 0, 48)

	// --- Preamble ---
	args = append(args, "-hide_banner", "-nostdin", "-y", "-loglevel", c.opts.LogLevel)

	// --- Inputs, with trim windows applied as input seeks ---
	args = appendInput(args, req.Hook.Path, t.HookTrimmed, t.HookStart, t.HookDuration)
	args = appendInput(args, req.Demo.Path, t.DemoTrimmed, t.DemoStart, t.DemoDuration)

	// --- Filter graph and output maps ---
	args = append(args, "-filter_complex", filterGraph)
	for _, p := range outputs {
		args = append(args, "-map", "["+p.String()+"]")
	}

	// --- Video codec ---
	args = append(args,
		"-c:v", c.opts.VideoCodec,
		"-preset", c.opts.Preset,
		"-crf", strconv.Itoa(c.opts.CRF),
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(CanonicalFPS),
	)

	// --- Audio codec ---
	if hasAudio {
		args = append(args,
			"-c:a", c.opts.AudioCodec,
			"-b:a", c.opts.AudioBitrate,
			"-ar", strconv.Itoa(audioSampleRate),
		)
	} else {
		args = append(args, "-an")
	}

	// --- Container ---
	args = append(args, "-movflags", "+faststart", req.OutputPath)
	return args
}

func appendInput(args []string, path string, trimmed bool, start, duration float64) []string {
	if trimmed {
		args = append(args,
			"-ss", strconv.FormatFloat(start, 'f', 3, 64),
			"-t", strconv.FormatFloat(duration, 'f', 3, 64),
		)
	}
	return append(args, "-i", path)
}
