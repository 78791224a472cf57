package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix namespaces environment overrides, e.g. REELFORGE_DATABASE_DSN.
const EnvPrefix = "REELFORGE"

type ConfigLoader struct {
	logger *zap.Logger
	v      *viper.Viper
}

func NewConfigLoader(logger *zap.Logger) *ConfigLoader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return &ConfigLoader{
		logger: logger,
		v:      v,
	}
}

// setDefaults registers every overridable key. Viper only consults the
// environment for keys it already knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.dsn", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("pipeline.ffmpeg_path", "ffmpeg")
	v.SetDefault("pipeline.ffprobe_path", "ffprobe")
	v.SetDefault("pipeline.work_dir", "./work")
	v.SetDefault("pipeline.timeout_sec", 300)
	v.SetDefault("pipeline.stale_after_min", 120)
	v.SetDefault("pipeline.drift_tolerance_sec", 0.5)
	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.poll_interval_sec", 5)
	v.SetDefault("worker.retention_days", 7)
	v.SetDefault("render.video_codec", "libx264")
	v.SetDefault("render.preset", "veryfast")
	v.SetDefault("render.crf", 23)
	v.SetDefault("render.audio_codec", "aac")
	v.SetDefault("render.audio_bitrate", "128k")
	v.SetDefault("render.log_level", "error")
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local.base_path", "./storage")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "composition-queue")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "console")
}

func (cl *ConfigLoader) Load(filePath string) (*Config, error) {
	cl.v.SetConfigFile(filePath)
	if err := cl.v.ReadInConfig(); err != nil {
		cl.logger.Error("Failed to read config file", zap.String("file", filePath), zap.Error(err))
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := cl.v.Unmarshal(&cfg); err != nil {
		cl.logger.Error("Failed to unmarshal config", zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cl.validate(&cfg); err != nil {
		cl.logger.Error("Config validation failed", zap.Error(err))
		return nil, err
	}

	cl.logger.Info("Config loaded successfully", zap.String("file", filePath))
	return &cfg, nil
}

func (cl *ConfigLoader) validate(cfg *Config) error {
	if cfg.Pipeline.FFmpegPath == "" {
		cfg.Pipeline.FFmpegPath = "ffmpeg"
	}
	if cfg.Pipeline.FFprobePath == "" {
		cfg.Pipeline.FFprobePath = "ffprobe"
	}
	if cfg.Pipeline.WorkDir == "" {
		return fmt.Errorf("pipeline.work_dir required")
	}
	if cfg.Pipeline.TimeoutSec <= 0 {
		return fmt.Errorf("pipeline.timeout_sec must be positive")
	}
	if cfg.Pipeline.DriftTolerance <= 0 {
		cfg.Pipeline.DriftTolerance = 0.5
	}

	if cfg.Pipeline.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts must be non-negative")
	}
	if cfg.Pipeline.Retry.MaxAttempts == 0 {
		cfg.Pipeline.Retry.MaxAttempts = 3
	}
	if cfg.Pipeline.Retry.InitialIntervalSec <= 0 {
		cfg.Pipeline.Retry.InitialIntervalSec = 1.0
	}
	if cfg.Pipeline.Retry.BackoffCoefficient <= 1 {
		cfg.Pipeline.Retry.BackoffCoefficient = 2.0
	}

	if cfg.Worker.PollIntervalSec <= 0 {
		cfg.Worker.PollIntervalSec = 5
	}

	if !isValidCodec(cfg.Render.VideoCodec) {
		return fmt.Errorf("invalid codec: %s", cfg.Render.VideoCodec)
	}
	if cfg.Render.CRF < 0 || cfg.Render.CRF > 51 {
		return fmt.Errorf("render.crf must be between 0 and 51")
	}

	storage := strings.ToLower(cfg.Storage.Type)
	switch storage {
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region required")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("s3 access_key and secret_key required")
		}
	case "local":
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("storage.local.base_path required")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s", storage)
	}
	cfg.Storage.Type = storage

	for _, pc := range cfg.Plugins {
		if pc.Name == "" {
			return fmt.Errorf("plugin name required")
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if !isValidLogLevel(cfg.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "console"
	}
	if cfg.Logging.Output == "file" && cfg.Logging.FilePath == "" {
		return fmt.Errorf("file_path required for file logging")
	}

	return nil
}

func isValidCodec(codec string) bool {
	supported := []string{"libx264", "libx265", "libaom-av1"}
	for _, c := range supported {
		if codec == c {
			return true
		}
	}
	return false
}

func isValidLogLevel(level string) bool {
	levels := []string{"debug", "info", "warn", "error"}
	for _, l := range levels {
		if strings.ToLower(level) == l {
			return true
		}
	}
	return false
}
