package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedPlugin struct{ name string }

func (p namedPlugin) Name() string { return p.name }
func (p namedPlugin) Execute(_ context.Context, in PluginInput) (PluginOutput, error) {
	return PluginOutput{FilePath: in.FilePath}, nil
}
func (p namedPlugin) Validate(map[string]interface{}) error { return nil }

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(namedPlugin{"watermark"}, namedPlugin{"burnin"})
	require.NoError(t, err)

	assert.Error(t, r.Register(namedPlugin{"watermark"}), "duplicate")
	assert.Error(t, r.Register(namedPlugin{""}), "empty name")
	assert.Error(t, r.Register(nil))

	p, ok := r.Get("watermark")
	require.True(t, ok)
	assert.Equal(t, "watermark", p.Name())

	_, ok = r.Get("subtitles")
	assert.False(t, ok)
	assert.Equal(t, []string{"burnin", "watermark"}, r.List())
}

func TestNewRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry(namedPlugin{"a"}, namedPlugin{"a"})
	assert.Error(t, err)
}
