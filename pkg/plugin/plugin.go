package plugin

import (
	"context"

	"github.com/google/uuid"
)

// Plugin is a post-render step applied to a composed video.
type Plugin interface {
	// Name returns the unique plugin identifier
	Name() string

	// Execute processes the composed file and returns the new file path
	Execute(ctx context.Context, input PluginInput) (PluginOutput, error)

	// Validate checks if the plugin configuration is valid
	Validate(config map[string]interface{}) error
}

type PluginInput struct {
	FilePath string                 // Composed video to process
	WorkDir  string                 // Job workspace; outputs must be written here
	JobID    uuid.UUID              // Owning job
	Config   map[string]interface{} // Plugin-specific configuration
}

type PluginOutput struct {
	FilePath string // Output video file path (can be same as input for in-place operations)
}
