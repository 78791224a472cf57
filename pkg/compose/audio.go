package compose

import (
	"fmt"
	"math"
)

const (
	audioSampleRate = 44100
	audioLayout     = "stereo"
)

// AudioPresence records which inputs carry an audio stream.
type AudioPresence struct {
	Hook bool
	Demo bool
}

// audioPads are the per-clip audio pads declared for a policy. A side the
// policy does not need is left empty.
type audioPads struct {
	policy AudioSource
	hook   Pad
	demo   Pad
}

// addClipAudios declares the per-clip audio chains, hook first. It returns
// ok=false for AudioNone, in which case nothing is added to the graph.
func addClipAudios(g *Graph, policy AudioSource, present AudioPresence, t Timing) (audioPads, bool) {
	pads := audioPads{policy: policy.normalize()}
	if pads.policy == AudioNone {
		return pads, false
	}
	if pads.policy.needsHook() {
		pads.hook = g.Pad("a")
		addClipAudio(g, 0, present.Hook, t.HookDuration, pads.hook)
	}
	if pads.policy.needsDemo() {
		pads.demo = g.Pad("a")
		addClipAudio(g, 1, present.Demo, t.DemoDuration, pads.demo)
	}
	return pads, true
}

// combineAudio joins the clip pads into out, aligned to the concatenated
// video timeline.
func combineAudio(g *Graph, pads audioPads, t Timing, out Pad) {
	switch pads.policy {
	case AudioHook:
		g.Add([]Label{pads.hook}, []string{fmt.Sprintf("apad=whole_dur=%.3f", t.HookDuration+t.DemoDuration)}, out)
	case AudioDemo:
		// Audio ends with the demo clip's own track; no trailing pad.
		ms := int64(math.Round(t.HookDuration * 1000))
		g.Add([]Label{pads.demo}, []string{fmt.Sprintf("adelay=%d|%d", ms, ms)}, out)
	case AudioBoth:
		g.Add([]Label{pads.hook, pads.demo}, []string{"concat=n=2:v=0:a=1"}, out)
	}
}

// addClipAudio declares pad with either the clip's own audio trimmed to its
// effective window or synthesized stereo silence of the same length.
func addClipAudio(g *Graph, input int, hasAudio bool, duration float64, pad Pad) {
	if hasAudio {
		g.Add([]Label{Stream{Input: input, Kind: "a"}}, []string{
			fmt.Sprintf("atrim=0:%.3f", duration),
			"asetpts=PTS-STARTPTS",
			fmt.Sprintf("aformat=sample_rates=%d:channel_layouts=%s", audioSampleRate, audioLayout),
		}, pad)
		return
	}
	g.Add(nil, []string{
		SilenceSource(),
		fmt.Sprintf("atrim=0:%.3f", duration),
	}, pad)
}

// SilenceSource is the anullsrc invocation used for clips without audio.
func SilenceSource() string {
	return fmt.Sprintf("anullsrc=channel_layout=%s:sample_rate=%d", audioLayout, audioSampleRate)
}
