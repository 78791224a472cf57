package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWorkspace_Lifecycle(t *testing.T) {
	root := t.TempDir()
	id := uuid.New()

	ws, err := NewWorkspace(root, id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "job-"+id.String()), ws.Dir)
	assert.Equal(t, filepath.Join(ws.Dir, "hook.mp4"), ws.HookPath())
	assert.Equal(t, filepath.Join(ws.Dir, "demo.mp4"), ws.DemoPath())
	assert.Equal(t, filepath.Join(ws.Dir, "output.mp4"), ws.OutputPath())

	require.NoError(t, os.WriteFile(ws.OutputPath(), []byte("x"), 0644))
	require.NoError(t, ws.Remove())
	assert.NoDirExists(t, ws.Dir)
}

func TestSweepWorkspaces(t *testing.T) {
	root := t.TempDir()
	stale, err := NewWorkspace(root, uuid.New())
	require.NoError(t, err)
	fresh, err := NewWorkspace(root, uuid.New())
	require.NoError(t, err)
	unrelated := filepath.Join(root, "keep-me")
	require.NoError(t, os.Mkdir(unrelated, 0755))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale.Dir, old, old))
	require.NoError(t, os.Chtimes(unrelated, old, old))

	removed, err := SweepWorkspaces(root, time.Hour, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, stale.Dir)
	assert.DirExists(t, fresh.Dir)
	assert.DirExists(t, unrelated)
}

func TestSweepWorkspaces_MissingRoot(t *testing.T) {
	removed, err := SweepWorkspaces(filepath.Join(t.TempDir(), "absent"), time.Hour, zaptest.NewLogger(t))
	assert.NoError(t, err)
	assert.Zero(t, removed)
}
