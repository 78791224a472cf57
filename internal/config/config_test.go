package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	types "ReelForge/pkg"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const sampleConfig = `
database:
  dsn: postgres://reelforge@localhost:5432/reelforge
pipeline:
  work_dir: /tmp/reelforge
  timeout_sec: 120
render:
  video_codec: libx265
  crf: 26
  font_file: /fonts/Inter.ttf
storage:
  type: LOCAL
  local:
    base_path: /srv/media
plugins:
  - name: watermark
    enabled: true
    config:
      text: "@reelforge"
logging:
  level: debug
`

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := NewConfigLoader(zaptest.NewLogger(t)).Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "postgres://reelforge@localhost:5432/reelforge", cfg.Database.DSN)
	assert.Equal(t, "/tmp/reelforge", cfg.Pipeline.WorkDir)
	assert.Equal(t, 2*time.Minute, cfg.EngineTimeout())
	assert.Equal(t, "ffprobe", cfg.Pipeline.FFprobePath)
	assert.Equal(t, 0.5, cfg.Pipeline.DriftTolerance)
	assert.Equal(t, int32(3), cfg.Pipeline.Retry.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.PollInterval())
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "composition-queue", cfg.Temporal.TaskQueue)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	require.Len(t, cfg.Plugins, 1)
	assert.Equal(t, "watermark", cfg.Plugins[0].Name)
	assert.Equal(t, "@reelforge", cfg.Plugins[0].Config["text"])

	opts := cfg.CompilerOptions()
	assert.Equal(t, "libx265", opts.VideoCodec)
	assert.Equal(t, 26, opts.CRF)
	assert.Equal(t, "veryfast", opts.Preset)
	assert.Equal(t, "/fonts/Inter.ttf", opts.Fonts.Regular)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("REELFORGE_DATABASE_DSN", "postgres://override/db")
	t.Setenv("REELFORGE_PIPELINE_TIMEOUT_SEC", "45")

	cfg, err := NewConfigLoader(zaptest.NewLogger(t)).Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "postgres://override/db", cfg.Database.DSN)
	assert.Equal(t, 45*time.Second, cfg.EngineTimeout())
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad codec", "render:\n  video_codec: mpeg2\n", "invalid codec"},
		{"bad crf", "render:\n  crf: 70\n", "render.crf"},
		{"s3 without bucket", "storage:\n  type: s3\n  s3:\n    region: us-east-1\n", "s3 bucket required"},
		{"unknown storage", "storage:\n  type: gcloud\n", "invalid storage backend"},
		{"bad log level", "logging:\n  level: loud\n", "invalid log level"},
		{"file logging without path", "logging:\n  output: file\n", "file_path required"},
		{"unnamed plugin", "plugins:\n  - enabled: true\n", "plugin name required"},
		{"zero timeout", "pipeline:\n  timeout_sec: 0\n", "timeout_sec"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfigLoader(zaptest.NewLogger(t)).Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewConfigLoader(zaptest.NewLogger(t)).Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(types.LoggingConfig{Level: "warn", Output: "console"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))

	path := filepath.Join(t.TempDir(), "reelforge.log")
	fileLogger, err := NewLogger(types.LoggingConfig{Level: "info", Output: "file", FilePath: path})
	require.NoError(t, err)
	fileLogger.Info("hello")
	_ = fileLogger.Sync()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)

	_, err = NewLogger(types.LoggingConfig{Level: "chatty"})
	assert.Error(t, err)
}
