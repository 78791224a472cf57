package compose

import (
	"fmt"
	"math"
	"strings"
)

// effectGenerator renders one effect as a filter-chain fragment for a clip of
// the given frame count and intensity multiplier.
type effectGenerator func(frames int, m float64) string

var effectGenerators = map[EffectKind]effectGenerator{
	EffectZoomIn:      zoomInFilter,
	EffectPunchZoom:   punchZoomFilter,
	EffectVerticalPan: verticalPanFilter,
	EffectCenterCrop:  centerCropFilter,
}

// EffectFilter returns the filter fragment for an effect, or "" when the effect
// is absent, "none" or unrecognised. Effects are cosmetic and never fail a job.
func EffectFilter(effect *Effect, frames int) string {
	if effect == nil {
		return ""
	}
	gen, ok := effectGenerators[EffectKind(strings.ToLower(string(effect.Type)))]
	if !ok {
		return ""
	}
	if frames < minEffectFrames {
		frames = minEffectFrames
	}
	return gen(frames, effect.Intensity.Multiplier())
}

const (
	centerX = "iw/2-(iw/zoom/2)"
	centerY = "ih/2-(ih/zoom/2)"
)

func zoompan(z, x, y string) string {
	return fmt.Sprintf("zoompan=z='%s':x='%s':y='%s':d=1:s=%dx%d:fps=%d",
		z, x, y, CanonicalWidth, CanonicalHeight, CanonicalFPS)
}

// zoomInFilter ramps linearly from 1.0 to 1+0.15m over the whole clip.
func zoomInFilter(frames int, m float64) string {
	end := 1 + 0.15*m
	inc := (end - 1) / float64(frames)
	return zoompan(fmt.Sprintf("min(1+on*%.6f,%.3f)", inc, end), centerX, centerY)
}

// punchZoomFilter reaches 1+0.2m within the first 20% of frames and holds.
// At the junction frame both pieces evaluate to the end zoom.
func punchZoomFilter(frames int, m float64) string {
	end := 1 + 0.2*m
	punch := int(math.Floor(float64(frames) * 0.2))
	if punch < 1 {
		punch = 1
	}
	inc := (end - 1) / float64(punch)
	z := fmt.Sprintf("if(lte(on,%d),1+on*%.6f,%.3f)", punch, inc, end)
	return zoompan(z, centerX, centerY)
}

// verticalPanFilter holds a 1.1 zoom and sweeps the crop window from
// -amp to +amp of the frame height across the clip.
func verticalPanFilter(frames int, m float64) string {
	amp := 0.05 * m
	y := fmt.Sprintf("%s+ih*%.3f*(2*min(on,%d)/%d-1)", centerY, amp, frames, frames)
	return zoompan("1.1", centerX, y)
}

// centerCropFilter upscales by 1+0.1m and crops the centered canonical frame.
func centerCropFilter(_ int, m float64) string {
	w, h, x, y := CenterCropGeometry(m)
	return fmt.Sprintf("scale=%d:%d,crop=%d:%d:%d:%d", w, h, CanonicalWidth, CanonicalHeight, x, y)
}

// CenterCropGeometry returns the scaled frame size and the crop offsets for a
// center-crop of multiplier m. The zoom factor is additive from 1.0 so m=0
// degrades to an identity crop rather than a smaller-than-canonical frame.
func CenterCropGeometry(m float64) (scaledW, scaledH, offsetX, offsetY int) {
	if m < 0 {
		m = 0
	}
	factor := 1 + 0.1*m
	scaledW = evenRound(CanonicalWidth * factor)
	scaledH = evenRound(CanonicalHeight * factor)
	return scaledW, scaledH, (scaledW - CanonicalWidth) / 2, (scaledH - CanonicalHeight) / 2
}

// evenRound rounds to the nearest even integer; yuv420p needs even dimensions.
func evenRound(v float64) int {
	return int(math.Round(v/2)) * 2
}
