package watermark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"ReelForge/pkg/compose"
	"ReelForge/pkg/plugin"
)

const Name = "watermark"

// Runner executes one engine invocation; *ffmpeg.Engine satisfies it.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

// WatermarkPlugin burns a corner text watermark into the composed video.
type WatermarkPlugin struct {
	engine Runner
	render compose.Options
	logger *zap.Logger
}

// NewWatermarkPlugin re-encodes with the same render settings the compiler uses.
func NewWatermarkPlugin(engine Runner, render compose.Options, logger *zap.Logger) *WatermarkPlugin {
	return &WatermarkPlugin{engine: engine, render: render.WithDefaults(), logger: logger}
}

func (p *WatermarkPlugin) Name() string {
	return Name
}

func (p *WatermarkPlugin) Validate(config map[string]interface{}) error {
	_, err := decodeConfig(config)
	return err
}

func (p *WatermarkPlugin) Execute(ctx context.Context, input plugin.PluginInput) (plugin.PluginOutput, error) {
	if _, err := os.Stat(input.FilePath); err != nil {
		return plugin.PluginOutput{}, fmt.Errorf("input file not found: %w", err)
	}
	cfg, err := decodeConfig(input.Config)
	if err != nil {
		return plugin.PluginOutput{}, err
	}

	dir := input.WorkDir
	if dir == "" {
		dir = filepath.Dir(input.FilePath)
	}
	base := strings.TrimSuffix(filepath.Base(input.FilePath), filepath.Ext(input.FilePath))
	outputFile := filepath.Join(dir, base+"-watermarked.mp4")

	p.logger.Info("Applying text watermark",
		zap.String("job_id", input.JobID.String()),
		zap.String("position", cfg.Position),
		zap.Int("font_size", cfg.FontSize))

	if err := p.engine.Run(ctx, Args(input.FilePath, outputFile, cfg, p.render)); err != nil {
		return plugin.PluginOutput{}, fmt.Errorf("failed to apply watermark: %w", err)
	}
	return plugin.PluginOutput{FilePath: outputFile}, nil
}

// Args is the engine argument vector re-encoding video with the watermark
// and copying audio untouched.
func Args(inputFile, outputFile string, cfg WatermarkConfig, render compose.Options) []string {
	return []string{
		"-hide_banner", "-loglevel", render.LogLevel, "-y",
		"-i", inputFile,
		"-vf", cfg.Filter(),
		"-c:v", render.VideoCodec, "-preset", render.Preset, "-crf", strconv.Itoa(render.CRF),
		"-c:a", "copy",
		"-movflags", "+faststart",
		outputFile,
	}
}

func decodeConfig(raw map[string]interface{}) (WatermarkConfig, error) {
	var cfg WatermarkConfig
	if err := mapstructure.Decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode watermark config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid watermark config: %w", err)
	}
	return cfg, nil
}
