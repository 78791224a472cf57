package compose

import (
	"fmt"
	"regexp"
	"strings"
)

const defaultFontSize = 72

var fontSizes = map[FontSize]int{
	FontSizeSmall:  48,
	FontSizeMedium: 72,
	FontSizeLarge:  96,
}

// Named colors with optional alpha ("white", "yellow@0.8") or hex RGB[A].
var (
	namedColor = regexp.MustCompile(`^[A-Za-z]+(@(0(\.[0-9]+)?|1(\.0+)?))?$`)
	hexColor   = regexp.MustCompile(`^(#|0x)[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$`)
)

// Fonts are the font files drawtext loads for normal and bold weight.
type Fonts struct {
	Regular string `mapstructure:"regular" json:"regular"`
	Bold    string `mapstructure:"bold" json:"bold"`
}

// EscapeText escapes the filtergraph metacharacters in user text. Backslash
// goes first so later substitutions are not escaped twice.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `:`, `\:`)
	s = strings.ReplaceAll(s, `[`, `\[`)
	s = strings.ReplaceAll(s, `]`, `\]`)
	return s
}

// FontSizePixels resolves a named size, defaulting to medium.
func FontSizePixels(size FontSize) int {
	if px, ok := fontSizes[FontSize(strings.ToLower(string(size)))]; ok {
		return px
	}
	return defaultFontSize
}

// SanitizeColor returns color when it is a drawtext color literal and white
// otherwise.
func SanitizeColor(color string) string {
	color = strings.TrimSpace(color)
	if namedColor.MatchString(color) || hexColor.MatchString(color) {
		return color
	}
	return "white"
}

// TextOverlayFilter renders the drawtext fragment appended to the hook chain,
// or "" when there is no text. The text is visible only while the hook plays.
func TextOverlayFilter(text string, style *TextStyle, pos *TextPosition, hookDuration float64, fonts Fonts) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if style == nil {
		style = &TextStyle{}
	}

	var opts []string
	if font := fontFor(style.Weight, fonts); font != "" {
		opts = append(opts, fmt.Sprintf("fontfile='%s'", EscapeText(font)))
	}
	x, y := textPlacement(pos)
	// An apostrophe still ends the quoted span: FFmpeg treats a backslash
	// inside single quotes as literal, so \' does not keep the quote open.
	opts = append(opts,
		fmt.Sprintf("text='%s'", EscapeText(text)),
		fmt.Sprintf("fontsize=%d", FontSizePixels(style.FontSize)),
		"fontcolor="+SanitizeColor(style.Color),
		"borderw=4",
		"bordercolor=black",
		"shadowcolor=black@0.6",
		"shadowx=3",
		"shadowy=3",
		"x="+x,
		"y="+y,
		fmt.Sprintf("enable='between(t,0,%.3f)'", hookDuration),
	)
	return "drawtext=" + strings.Join(opts, ":")
}

func fontFor(weight FontWeight, fonts Fonts) string {
	if strings.EqualFold(string(weight), string(FontWeightBold)) && fonts.Bold != "" {
		return fonts.Bold
	}
	return fonts.Regular
}

// textPlacement positions the text's center at the given percentages.
func textPlacement(pos *TextPosition) (x, y string) {
	if pos == nil {
		return "(w-text_w)/2", "(h-text_h)/2"
	}
	return fmt.Sprintf("(w*%.4f)-(text_w/2)", clampPercent(pos.X)/100),
		fmt.Sprintf("(h*%.4f)-(text_h/2)", clampPercent(pos.Y)/100)
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
