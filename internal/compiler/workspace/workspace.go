// Package workspace manages the isolated per-submission directories
// that compile and execute stages operate in.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErr "javox/pkg/errors"
	"javox/pkg/utils/logger"
)

const dirPrefix = "javox-"

// Workspace is an isolated filesystem directory owned by exactly one
// in-flight submission.
type Workspace struct {
	path string
}

// Path returns the workspace root directory.
func (w *Workspace) Path() string {
	return w.path
}

// Join resolves name inside the workspace and rejects paths that
// escape it.
func (w *Workspace) Join(name string) (string, error) {
	p := filepath.Join(w.path, name)
	if p != w.path && !strings.HasPrefix(p, w.path+string(os.PathSeparator)) {
		return "", appErr.Newf(appErr.WorkspaceError, "path %q escapes workspace", name)
	}
	return p, nil
}

// WriteText writes a UTF-8 text file inside the workspace.
func (w *Workspace) WriteText(name, content string) error {
	return w.WriteBytes(name, []byte(content))
}

// WriteBytes writes a file inside the workspace.
func (w *Workspace) WriteBytes(name string, data []byte) error {
	p, err := w.Join(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0600); err != nil {
		return appErr.Wrapf(err, appErr.WorkspaceError, "write %s failed", name)
	}
	return nil
}

// ReadBytes reads a file from inside the workspace.
func (w *Workspace) ReadBytes(name string) ([]byte, error) {
	p, err := w.Join(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.WorkspaceError, "read %s failed", name)
	}
	return data, nil
}

// Manager creates and destroys workspaces under a configured root.
type Manager struct {
	root string
}

// NewManager creates a workspace manager. An empty root falls back to
// the system temp directory.
func NewManager(root string) *Manager {
	if root == "" {
		root = os.TempDir()
	}
	return &Manager{root: root}
}

// Create allocates a uniquely named workspace directory, owner-only.
func (m *Manager) Create(ctx context.Context) (*Workspace, error) {
	if err := os.MkdirAll(m.root, 0755); err != nil {
		return nil, appErr.Wrapf(err, appErr.WorkspaceError, "create workspace root failed")
	}
	path := filepath.Join(m.root, fmt.Sprintf("%s%s", dirPrefix, uuid.NewString()))
	if err := os.Mkdir(path, 0700); err != nil {
		return nil, appErr.Wrapf(err, appErr.WorkspaceError, "create workspace failed")
	}
	logger.Debug(ctx, "workspace created", zap.String("path", path))
	return &Workspace{path: path}, nil
}

// Destroy removes the workspace and everything inside it. Cleanup
// failures are logged and swallowed so they can never mask the
// submission's primary result.
func (m *Manager) Destroy(ctx context.Context, w *Workspace) {
	if w == nil || w.path == "" {
		return
	}
	if err := os.RemoveAll(w.path); err != nil {
		logger.Warn(ctx, "workspace cleanup failed",
			zap.String("path", w.path), zap.Error(err))
	}
}
