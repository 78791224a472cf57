package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const workspacePrefix = "job-"

// Workspace is the scratch directory of one job. Everything the job writes
// lives under Dir and is removed by Remove.
type Workspace struct {
	Dir string
}

func (w *Workspace) HookPath() string   { return filepath.Join(w.Dir, "hook.mp4") }
func (w *Workspace) DemoPath() string   { return filepath.Join(w.Dir, "demo.mp4") }
func (w *Workspace) OutputPath() string { return filepath.Join(w.Dir, "output.mp4") }

// Path returns a file name inside the workspace.
func (w *Workspace) Path(name string) string { return filepath.Join(w.Dir, name) }

func (w *Workspace) Remove() error {
	return os.RemoveAll(w.Dir)
}

// NewWorkspace creates the directory for jobID under root.
func NewWorkspace(root string, jobID uuid.UUID) (*Workspace, error) {
	dir := filepath.Join(root, workspacePrefix+jobID.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// SweepWorkspaces removes job directories under root not modified within
// olderThan. It returns how many were removed.
func SweepWorkspaces(root string, olderThan time.Duration, logger *zap.Logger) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read work dir: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), workspacePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("Failed to remove stale workspace", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("Removed stale workspaces", zap.Int("count", removed))
	}
	return removed, nil
}
