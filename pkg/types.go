package types

type PipelineConfig struct {
	FFmpegPath     string      `mapstructure:"ffmpeg_path" json:"ffmpeg_path"`
	FFprobePath    string      `mapstructure:"ffprobe_path" json:"ffprobe_path"`
	WorkDir        string      `mapstructure:"work_dir" json:"work_dir"`
	TimeoutSec     int         `mapstructure:"timeout_sec" json:"timeout_sec"`
	StaleAfterMin  int         `mapstructure:"stale_after_min" json:"stale_after_min"`
	DriftTolerance float64     `mapstructure:"drift_tolerance_sec" json:"drift_tolerance_sec"`
	Retry          RetryConfig `mapstructure:"retry" json:"retry"`
}

type RetryConfig struct {
	MaxAttempts        int32   `mapstructure:"max_attempts" json:"max_attempts"`
	InitialIntervalSec float64 `mapstructure:"initial_interval_sec" json:"initial_interval_sec"`
	BackoffCoefficient float64 `mapstructure:"backoff_coefficient" json:"backoff_coefficient"`
}

type WorkerConfig struct {
	Enabled         bool `mapstructure:"enabled" json:"enabled"`
	PollIntervalSec int  `mapstructure:"poll_interval_sec" json:"poll_interval_sec"`
	RetentionDays   int  `mapstructure:"retention_days" json:"retention_days"`
}

// RenderConfig holds the encoder settings handed to the compiler.
type RenderConfig struct {
	VideoCodec   string `mapstructure:"video_codec" json:"video_codec"`
	Preset       string `mapstructure:"preset" json:"preset"`
	CRF          int    `mapstructure:"crf" json:"crf"`
	AudioCodec   string `mapstructure:"audio_codec" json:"audio_codec"`
	AudioBitrate string `mapstructure:"audio_bitrate" json:"audio_bitrate"`
	FontFile     string `mapstructure:"font_file" json:"font_file"`
	BoldFontFile string `mapstructure:"bold_font_file" json:"bold_font_file"`
	LogLevel     string `mapstructure:"log_level" json:"log_level"`
}

type StorageConfig struct {
	Type  string      `mapstructure:"type" json:"type"`
	Local LocalConfig `mapstructure:"local" json:"local"`
	S3    S3Config    `mapstructure:"s3" json:"s3"`
}

type LocalConfig struct {
	BasePath string `mapstructure:"base_path" json:"base_path"`
}

// S3Config also covers S3-compatible stores (MinIO, R2) through Endpoint.
type S3Config struct {
	Bucket          string `mapstructure:"bucket" json:"bucket"`
	Region          string `mapstructure:"region" json:"region"`
	AccessKeyID     string `mapstructure:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" json:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint" json:"endpoint"`
	UsePathStyle    bool   `mapstructure:"use_path_style" json:"use_path_style"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port" json:"host_port"`
	Namespace string `mapstructure:"namespace" json:"namespace"`
	TaskQueue string `mapstructure:"task_queue" json:"task_queue"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr" json:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" json:"allowed_origins"`
}

type PluginConfig struct {
	Name    string                 `mapstructure:"name" json:"name"`
	Enabled bool                   `mapstructure:"enabled" json:"enabled"`
	Config  map[string]interface{} `mapstructure:"config" json:"config"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level" json:"level"`
	Output   string `mapstructure:"output" json:"output"`
	FilePath string `mapstructure:"file_path" json:"file_path"`
}
