package watermark

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ReelForge/pkg/compose"
	"ReelForge/pkg/plugin"
)

type recordingRunner struct {
	args [][]string
	err  error
}

func (r *recordingRunner) Run(_ context.Context, args []string) error {
	r.args = append(r.args, args)
	return r.err
}

func TestWatermarkConfig_Defaults(t *testing.T) {
	var cfg WatermarkConfig
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "ReelForge", cfg.Text)
	assert.Equal(t, "bottom-right", cfg.Position)

	x, y := cfg.PositionExpression()
	assert.Equal(t, "(w-tw-40)", x)
	assert.Equal(t, "(h-th-40)", y)
}

func TestWatermarkConfig_PositionExpression(t *testing.T) {
	tests := []struct {
		position string
		x, y     string
	}{
		{"top-left", "10", "10"},
		{"top-right", "(w-tw-10)", "10"},
		{"bottom-left", "10", "(h-th-10)"},
		{"bottom-right", "(w-tw-10)", "(h-th-10)"},
	}
	for _, tt := range tests {
		t.Run(tt.position, func(t *testing.T) {
			cfg := WatermarkConfig{Position: tt.position, Padding: 10}
			x, y := cfg.PositionExpression()
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
		})
	}
}

func TestWatermarkConfig_Filter(t *testing.T) {
	cfg := WatermarkConfig{Text: "it's 10:30", Position: "top-left", FontSize: 24, FontColor: "red", FontFile: "/f.ttf", Alpha: 0.5, Padding: 8}
	assert.Equal(t,
		`drawtext=fontfile='/f.ttf':text='it\'s 10\:30':fontsize=24:fontcolor=red@0.50:x=8:y=8`,
		cfg.Filter())
}

func TestWatermarkConfig_FilterColorAndFontPath(t *testing.T) {
	tests := []struct {
		name      string
		color     string
		fontFile  string
		wantColor string
		wantFont  string
	}{
		{"alpha replaces colour opacity", "yellow@0.8", "/f.ttf", "fontcolor=yellow@0.60:", "fontfile='/f.ttf':"},
		{"hex colour", "#FF8800", "/f.ttf", "fontcolor=#FF8800@0.60:", "fontfile='/f.ttf':"},
		{"drive letter path", "white", "C:/fonts/a b.ttf", "fontcolor=white@0.60:", `fontfile='C\:/fonts/a b.ttf':`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := WatermarkConfig{FontColor: tt.color, FontFile: tt.fontFile}
			cfg.SetDefaults()
			require.NoError(t, cfg.Validate())

			got := cfg.Filter()
			assert.Contains(t, got, tt.wantColor)
			assert.Contains(t, got, tt.wantFont)
			assert.Equal(t, 1, strings.Count(got, "@"), got)
		})
	}
}

func TestArgs_UsesRenderSettings(t *testing.T) {
	cfg := WatermarkConfig{}
	cfg.SetDefaults()
	render := compose.Options{VideoCodec: "libx265", Preset: "slow", CRF: 28}.WithDefaults()

	args := strings.Join(Args("in.mp4", "out.mp4", cfg, render), " ")
	assert.Contains(t, args, "-c:v libx265 -preset slow -crf 28")
	assert.Contains(t, args, "-loglevel error")
}

func TestWatermarkPlugin_Validate(t *testing.T) {
	p := NewWatermarkPlugin(&recordingRunner{}, compose.Options{}, zaptest.NewLogger(t))

	assert.NoError(t, p.Validate(nil))
	assert.NoError(t, p.Validate(map[string]interface{}{"text": "@brand", "position": "top-left"}))
	assert.Error(t, p.Validate(map[string]interface{}{"position": "middle"}))
	assert.Error(t, p.Validate(map[string]interface{}{"alpha": 1.5}))
	assert.Error(t, p.Validate(map[string]interface{}{"font_size": "big"}))
}

func TestWatermarkPlugin_Execute(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "output.mp4")
	require.NoError(t, os.WriteFile(input, []byte("video"), 0644))

	runner := &recordingRunner{}
	p := NewWatermarkPlugin(runner, compose.Options{}, zaptest.NewLogger(t))

	out, err := p.Execute(context.Background(), plugin.PluginInput{
		FilePath: input,
		WorkDir:  dir,
		JobID:    uuid.New(),
		Config:   map[string]interface{}{"text": "@brand"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "output-watermarked.mp4"), out.FilePath)

	require.Len(t, runner.args, 1)
	args := runner.args[0]
	assert.Equal(t, out.FilePath, args[len(args)-1])
	assert.Contains(t, strings.Join(args, " "), "text='@brand'")
	assert.Contains(t, strings.Join(args, " "), "-c:a copy")
}

func TestWatermarkPlugin_ExecuteFailures(t *testing.T) {
	p := NewWatermarkPlugin(&recordingRunner{}, compose.Options{}, zaptest.NewLogger(t))
	_, err := p.Execute(context.Background(), plugin.PluginInput{FilePath: "/missing.mp4"})
	assert.Error(t, err)

	dir := t.TempDir()
	input := filepath.Join(dir, "in.mp4")
	require.NoError(t, os.WriteFile(input, []byte("video"), 0644))
	boom := errors.New("boom")
	p = NewWatermarkPlugin(&recordingRunner{err: boom}, compose.Options{}, zaptest.NewLogger(t))
	_, err = p.Execute(context.Background(), plugin.PluginInput{FilePath: input})
	assert.ErrorIs(t, err, boom)
}
