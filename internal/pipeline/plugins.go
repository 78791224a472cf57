package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	types "ReelForge/pkg"
	"ReelForge/pkg/plugin"
)

// PluginProcessor runs the enabled post-render plugins over a composed file.
type PluginProcessor struct {
	registry *plugin.Registry
	configs  []types.PluginConfig
	logger   *zap.Logger
}

func NewPluginProcessor(registry *plugin.Registry, configs []types.PluginConfig, logger *zap.Logger) *PluginProcessor {
	return &PluginProcessor{
		registry: registry,
		configs:  configs,
		logger:   logger,
	}
}

// PluginRun is the outcome of Process: the final file and the plugins applied.
type PluginRun struct {
	FilePath string
	Applied  []string
}

// Validate checks every enabled plugin exists and accepts its config, so a
// misconfiguration is caught at startup instead of after a render.
func (p *PluginProcessor) Validate() error {
	for _, cfg := range p.enabled() {
		pl, ok := p.registry.Get(cfg.Name)
		if !ok {
			return fmt.Errorf("plugin %s not found in registry", cfg.Name)
		}
		if err := pl.Validate(cfg.Config); err != nil {
			return fmt.Errorf("plugin %s config validation failed: %w", cfg.Name, err)
		}
	}
	return nil
}

// Process executes enabled plugins sequentially, each on the previous output.
func (p *PluginProcessor) Process(ctx context.Context, jobID uuid.UUID, workDir, filePath string) (PluginRun, error) {
	run := PluginRun{FilePath: filePath}

	enabled := p.enabled()
	if len(enabled) == 0 {
		return run, nil
	}
	p.logger.Info("Processing plugins", zap.String("job_id", jobID.String()), zap.Int("count", len(enabled)))

	for _, cfg := range enabled {
		pl, ok := p.registry.Get(cfg.Name)
		if !ok {
			return run, fmt.Errorf("plugin %s not found in registry", cfg.Name)
		}
		if err := pl.Validate(cfg.Config); err != nil {
			return run, fmt.Errorf("plugin %s config validation failed: %w", cfg.Name, err)
		}

		out, err := pl.Execute(ctx, plugin.PluginInput{
			FilePath: run.FilePath,
			WorkDir:  workDir,
			JobID:    jobID,
			Config:   cfg.Config,
		})
		if err != nil {
			return run, fmt.Errorf("plugin %s execution failed: %w", cfg.Name, err)
		}

		run.FilePath = out.FilePath
		run.Applied = append(run.Applied, cfg.Name)
		p.logger.Info("Plugin executed", zap.String("name", cfg.Name), zap.String("output_path", run.FilePath))
	}
	return run, nil
}

func (p *PluginProcessor) enabled() []types.PluginConfig {
	enabled := make([]types.PluginConfig, 0, len(p.configs))
	for _, cfg := range p.configs {
		if cfg.Enabled {
			enabled = append(enabled, cfg)
		}
	}
	return enabled
}
