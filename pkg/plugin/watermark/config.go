package watermark

import (
	"fmt"
	"strings"

	"ReelForge/pkg/compose"
)

// WatermarkConfig holds the configuration for the watermark plugin
type WatermarkConfig struct {
	Text      string  `json:"text" mapstructure:"text"`
	Position  string  `json:"position" mapstructure:"position"`
	FontSize  int     `json:"font_size" mapstructure:"font_size"`
	FontColor string  `json:"font_color" mapstructure:"font_color"`
	FontFile  string  `json:"font_file" mapstructure:"font_file"`
	Alpha     float64 `json:"alpha" mapstructure:"alpha"`
	Padding   int     `json:"padding" mapstructure:"padding"`
}

// SetDefaults sets default values for missing configuration
func (c *WatermarkConfig) SetDefaults() {
	if c.Text == "" {
		c.Text = "ReelForge"
	}
	if c.Position == "" {
		c.Position = "bottom-right"
	}
	if c.FontSize == 0 {
		c.FontSize = 36
	}
	if c.FontColor == "" {
		c.FontColor = "white"
	}
	if c.FontFile == "" {
		c.FontFile = compose.DefaultOptions().Fonts.Bold
	}
	if c.Alpha == 0 {
		c.Alpha = 0.6
	}
	if c.Padding == 0 {
		c.Padding = 40
	}
}

var validPositions = map[string]bool{
	"top-left":     true,
	"top-right":    true,
	"bottom-left":  true,
	"bottom-right": true,
}

func (c *WatermarkConfig) Validate() error {
	if !validPositions[c.Position] {
		return fmt.Errorf("invalid position: %s (must be one of: top-left, top-right, bottom-left, bottom-right)", c.Position)
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("font_size must be greater than 0, got: %d", c.FontSize)
	}
	if c.Alpha < 0.0 || c.Alpha > 1.0 {
		return fmt.Errorf("alpha must be between 0.0 and 1.0, got: %.2f", c.Alpha)
	}
	if c.Padding < 0 {
		return fmt.Errorf("padding must be greater than or equal to 0, got: %d", c.Padding)
	}
	return nil
}

// PositionExpression returns drawtext x/y expressions for the corner.
func (c *WatermarkConfig) PositionExpression() (x, y string) {
	x = fmt.Sprintf("%d", c.Padding)
	y = fmt.Sprintf("%d", c.Padding)
	switch c.Position {
	case "top-right":
		x = fmt.Sprintf("(w-tw-%d)", c.Padding)
	case "bottom-left":
		y = fmt.Sprintf("(h-th-%d)", c.Padding)
	case "bottom-right":
		x = fmt.Sprintf("(w-tw-%d)", c.Padding)
		y = fmt.Sprintf("(h-th-%d)", c.Padding)
	}
	return x, y
}

// Filter builds the drawtext filter for the watermark. Alpha replaces any
// opacity already carried by the colour.
func (c *WatermarkConfig) Filter() string {
	x, y := c.PositionExpression()
	color, _, _ := strings.Cut(compose.SanitizeColor(c.FontColor), "@")
	opts := []string{}
	if c.FontFile != "" {
		opts = append(opts, fmt.Sprintf("fontfile='%s'", compose.EscapeText(c.FontFile)))
	}
	opts = append(opts,
		fmt.Sprintf("text='%s'", compose.EscapeText(c.Text)),
		fmt.Sprintf("fontsize=%d", c.FontSize),
		fmt.Sprintf("fontcolor=%s@%.2f", color, c.Alpha),
		"x="+x,
		"y="+y,
	)
	return "drawtext=" + strings.Join(opts, ":")
}
