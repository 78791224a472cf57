package compose

import "strings"

// EditConfig is the declarative edit description attached to a composition job.
// Every field is optional; a zero EditConfig concatenates both clips in full
// with both audio tracks and no effects.
type EditConfig struct {
	HookTrim     *Trim         `json:"hookTrim,omitempty" mapstructure:"hookTrim"`
	DemoTrim     *Trim         `json:"demoTrim,omitempty" mapstructure:"demoTrim"`
	Transition   *Transition   `json:"transition,omitempty" mapstructure:"transition"`
	HookEffect   *Effect       `json:"hookEffect,omitempty" mapstructure:"hookEffect"`
	DemoEffect   *Effect       `json:"demoEffect,omitempty" mapstructure:"demoEffect"`
	TextStyle    *TextStyle    `json:"textStyle,omitempty" mapstructure:"textStyle"`
	TextPosition *TextPosition `json:"textPosition,omitempty" mapstructure:"textPosition"`
	AudioSource  AudioSource   `json:"audioSource,omitempty" mapstructure:"audioSource"`
}

// Trim selects a [StartTime, EndTime) window of a clip, in seconds.
type Trim struct {
	StartTime   float64 `json:"startTime" mapstructure:"startTime"`
	EndTime     float64 `json:"endTime" mapstructure:"endTime"`
	UseFullClip bool    `json:"useFullClip" mapstructure:"useFullClip"`
}

// active reports whether the trim window replaces the probed duration.
func (t *Trim) active() bool {
	return t != nil && !t.UseFullClip
}

// Transition joins the tail of the hook to the head of the demo.
// DurationMs is in milliseconds.
type Transition struct {
	Type       TransitionKind `json:"type" mapstructure:"type"`
	DurationMs int            `json:"duration" mapstructure:"duration"`
}

// Effect is a camera-motion or crop effect applied to one clip.
type Effect struct {
	Type      EffectKind `json:"type" mapstructure:"type"`
	Intensity Intensity  `json:"intensity" mapstructure:"intensity"`
}

type TextStyle struct {
	FontSize FontSize   `json:"fontSize,omitempty" mapstructure:"fontSize"`
	Color    string     `json:"color,omitempty" mapstructure:"color"`
	Weight   FontWeight `json:"weight,omitempty" mapstructure:"weight"`
}

// TextPosition is the text's center as a percentage of the frame, origin top-left.
type TextPosition struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
}

type EffectKind string

const (
	EffectNone        EffectKind = "none"
	EffectZoomIn      EffectKind = "zoom-in"
	EffectPunchZoom   EffectKind = "punch-zoom"
	EffectVerticalPan EffectKind = "vertical-pan"
	EffectCenterCrop  EffectKind = "center-crop"
)

type Intensity string

const (
	IntensitySubtle Intensity = "subtle"
	IntensityMedium Intensity = "medium"
	IntensityStrong Intensity = "strong"
)

var intensityMultipliers = map[Intensity]float64{
	IntensitySubtle: 0.5,
	IntensityMedium: 1.0,
	IntensityStrong: 1.5,
}

// Multiplier returns the effect strength factor. Unset or unknown values
// behave like medium.
func (i Intensity) Multiplier() float64 {
	if m, ok := intensityMultipliers[Intensity(strings.ToLower(string(i)))]; ok {
		return m
	}
	return 1.0
}

type TransitionKind string

const (
	TransitionCut       TransitionKind = "cut"
	TransitionCrossfade TransitionKind = "crossfade"
	TransitionPushUp    TransitionKind = "push-up"
	TransitionZoomCut   TransitionKind = "zoom-cut"
)

type FontSize string

const (
	FontSizeSmall  FontSize = "small"
	FontSizeMedium FontSize = "medium"
	FontSizeLarge  FontSize = "large"
)

type FontWeight string

const (
	FontWeightNormal FontWeight = "normal"
	FontWeightBold   FontWeight = "bold"
)

// AudioSource selects which clip audio ends up in the output.
type AudioSource string

const (
	AudioHook AudioSource = "hook"
	AudioDemo AudioSource = "demo"
	AudioBoth AudioSource = "both"
	AudioNone AudioSource = "none"
)

// normalize maps an unset or unrecognised policy to both.
func (a AudioSource) normalize() AudioSource {
	switch AudioSource(strings.ToLower(string(a))) {
	case AudioHook:
		return AudioHook
	case AudioDemo:
		return AudioDemo
	case AudioNone:
		return AudioNone
	default:
		return AudioBoth
	}
}

func (a AudioSource) needsHook() bool {
	return a == AudioHook || a == AudioBoth
}

func (a AudioSource) needsDemo() bool {
	return a == AudioDemo || a == AudioBoth
}
