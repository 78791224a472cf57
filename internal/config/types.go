package config

import (
	"time"

	types "ReelForge/pkg"
	"ReelForge/pkg/compose"
)

type Config struct {
	Database DatabaseConfig       `mapstructure:"database" json:"database"`
	Server   types.ServerConfig   `mapstructure:"server" json:"server"`
	Pipeline types.PipelineConfig `mapstructure:"pipeline" json:"pipeline"`
	Worker   types.WorkerConfig   `mapstructure:"worker" json:"worker"`
	Render   types.RenderConfig   `mapstructure:"render" json:"render"`
	Storage  types.StorageConfig  `mapstructure:"storage" json:"storage"`
	Temporal types.TemporalConfig `mapstructure:"temporal" json:"temporal"`
	Plugins  []types.PluginConfig `mapstructure:"plugins" json:"plugins"`
	Logging  types.LoggingConfig  `mapstructure:"logging" json:"logging"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" json:"dsn"`
}

// CompilerOptions maps the render section onto compiler options.
func (c *Config) CompilerOptions() compose.Options {
	return compose.Options{
		Fonts: compose.Fonts{
			Regular: c.Render.FontFile,
			Bold:    c.Render.BoldFontFile,
		},
		VideoCodec:   c.Render.VideoCodec,
		Preset:       c.Render.Preset,
		CRF:          c.Render.CRF,
		AudioCodec:   c.Render.AudioCodec,
		AudioBitrate: c.Render.AudioBitrate,
		LogLevel:     c.Render.LogLevel,
	}
}

func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Pipeline.TimeoutSec) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Worker.PollIntervalSec) * time.Second
}
