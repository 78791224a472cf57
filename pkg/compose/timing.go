package compose

import "math"

const (
	// CanonicalFPS is the frame rate every input is normalized to.
	CanonicalFPS = 30
	// CanonicalWidth and CanonicalHeight describe the vertical output frame.
	CanonicalWidth  = 1080
	CanonicalHeight = 1920

	minEffectFrames = CanonicalFPS
)

// Timing holds the four canonical intervals every downstream stage works from.
type Timing struct {
	HookStart    float64
	HookDuration float64
	DemoStart    float64
	DemoDuration float64

	HookTrimmed bool
	DemoTrimmed bool
}

// ResolveTiming computes the effective windows of both clips from the edit
// configuration and their probed durations.
func ResolveTiming(cfg EditConfig, hookProbed, demoProbed float64) (Timing, error) {
	var t Timing
	var err error

	t.HookStart, t.HookDuration, t.HookTrimmed, err = resolveClip("hook", cfg.HookTrim, hookProbed)
	if err != nil {
		return Timing{}, err
	}
	t.DemoStart, t.DemoDuration, t.DemoTrimmed, err = resolveClip("demo", cfg.DemoTrim, demoProbed)
	if err != nil {
		return Timing{}, err
	}
	return t, nil
}

func resolveClip(clip string, trim *Trim, probed float64) (start, duration float64, trimmed bool, err error) {
	if trim.active() {
		start, duration, trimmed = trim.StartTime, trim.EndTime-trim.StartTime, true
		if duration <= 0 || start < 0 {
			return 0, 0, false, &InvalidTrimError{Clip: clip, Start: trim.StartTime, End: trim.EndTime}
		}
		return start, duration, trimmed, nil
	}
	if probed <= 0 {
		return 0, 0, false, &InvalidTrimError{Clip: clip, Start: 0, End: probed}
	}
	return 0, probed, false, nil
}

// FrameCount converts a duration to canonical frames, never fewer than one
// second's worth so animations cannot degenerate.
func FrameCount(duration float64) int {
	frames := int(math.Floor(duration * CanonicalFPS))
	if frames < minEffectFrames {
		return minEffectFrames
	}
	return frames
}
