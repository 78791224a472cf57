package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanTransition(t *testing.T) {
	tests := []struct {
		name   string
		tr     *Transition
		hook   float64
		filter string
	}{
		{"crossfade", &Transition{Type: TransitionCrossfade, DurationMs: 500}, 5, "xfade=transition=fade:duration=0.500:offset=4.500"},
		{"push-up", &Transition{Type: TransitionPushUp, DurationMs: 750}, 3, "xfade=transition=slideup:duration=0.750:offset=2.250"},
		{"zoom-cut capped", &Transition{Type: TransitionZoomCut, DurationMs: 1200}, 5, "xfade=transition=zoomin:duration=0.300:offset=4.700"},
		{"zoom-cut under cap", &Transition{Type: TransitionZoomCut, DurationMs: 200}, 5, "xfade=transition=zoomin:duration=0.200:offset=4.800"},
		{"cut", &Transition{Type: TransitionCut, DurationMs: 500}, 5, "concat=n=2:v=1:a=0"},
		{"zero duration", &Transition{Type: TransitionCrossfade}, 5, "concat=n=2:v=1:a=0"},
		{"unknown kind", &Transition{Type: "wipe", DurationMs: 500}, 5, "concat=n=2:v=1:a=0"},
		{"absent", nil, 5, "concat=n=2:v=1:a=0"},
		{"longer than hook", &Transition{Type: TransitionCrossfade, DurationMs: 4000}, 2, "xfade=transition=fade:duration=4.000:offset=0.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.filter, PlanTransition(tt.tr, tt.hook).Filter())
		})
	}
}

func TestPlanTransition_OffsetNeverNegative(t *testing.T) {
	for _, hook := range []float64{0, 0.1, 0.3, 1, 4.99, 30} {
		for _, ms := range []int{1, 100, 300, 500, 1000, 10000} {
			for _, kind := range []TransitionKind{TransitionCrossfade, TransitionPushUp, TransitionZoomCut} {
				plan := PlanTransition(&Transition{Type: kind, DurationMs: ms}, hook)
				assert.GreaterOrEqual(t, plan.Offset, 0.0, "hook=%v ms=%d kind=%s", hook, ms, kind)
			}
		}
	}
}

func TestTransitionPlan_OutputDuration(t *testing.T) {
	timing := Timing{HookDuration: 5, DemoDuration: 8}

	crossfade := PlanTransition(&Transition{Type: TransitionCrossfade, DurationMs: 500}, timing.HookDuration)
	assert.InDelta(t, 12.5, crossfade.OutputDuration(timing), 1e-9)

	cut := PlanTransition(&Transition{Type: TransitionCut}, timing.HookDuration)
	assert.InDelta(t, 13.0, cut.OutputDuration(timing), 1e-9)
}
