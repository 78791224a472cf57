package compose

import (
	"fmt"
	"math"
	"strings"
)

const zoomCutMaxSeconds = 0.3

// TransitionPlan describes how the hook and demo video are joined. When
// Concat is set the two pads are simply concatenated and the other fields are
// zero.
type TransitionPlan struct {
	Concat   bool
	Name     string
	Duration float64
	Offset   float64
}

type transitionSpec struct {
	xfade       string
	maxDuration float64
}

var transitionSpecs = map[TransitionKind]transitionSpec{
	TransitionCrossfade: {xfade: "fade"},
	TransitionPushUp:    {xfade: "slideup"},
	TransitionZoomCut:   {xfade: "zoomin", maxDuration: zoomCutMaxSeconds},
}

// PlanTransition resolves the blend between the clips. The offset is never
// negative: a transition longer than the hook starts at time zero.
func PlanTransition(tr *Transition, hookDuration float64) TransitionPlan {
	if tr == nil || tr.DurationMs <= 0 {
		return TransitionPlan{Concat: true}
	}
	spec, ok := transitionSpecs[TransitionKind(strings.ToLower(string(tr.Type)))]
	if !ok {
		return TransitionPlan{Concat: true}
	}

	duration := float64(tr.DurationMs) / 1000
	if spec.maxDuration > 0 && duration > spec.maxDuration {
		duration = spec.maxDuration
	}
	return TransitionPlan{
		Name:     spec.xfade,
		Duration: duration,
		Offset:   math.Max(0, hookDuration-duration),
	}
}

// Filter renders the video join filter for two input pads.
func (p TransitionPlan) Filter() string {
	if p.Concat {
		return "concat=n=2:v=1:a=0"
	}
	return fmt.Sprintf("xfade=transition=%s:duration=%.3f:offset=%.3f", p.Name, p.Duration, p.Offset)
}

// OutputDuration is the length of the joined video timeline.
func (p TransitionPlan) OutputDuration(t Timing) float64 {
	if p.Concat {
		return t.HookDuration + t.DemoDuration
	}
	// xfade ends when its second input does.
	return p.Offset + t.DemoDuration
}
