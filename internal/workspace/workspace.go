// Package workspace manages the on-disk layout of a run: the shared initial
// condition, per-job staged snapshots, report artifacts, and job logs.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SharedID is the reserved identifier for the shared initial condition. Job
// identifiers start at 1.
const SharedID = 0

// ErrMissingSharedState indicates the shared initial condition artifact does
// not exist or is empty.
var ErrMissingSharedState = errors.New("shared initial condition missing or empty")

// Workspace resolves artifact paths inside a single output directory. All
// paths are derived from the numeric job identifier.
type Workspace struct {
	dir string
}

// New creates a Workspace rooted at dir, creating the directory if needed.
func New(dir string) (*Workspace, error) {
	if dir == "" {
		return nil, errors.New("output directory cannot be empty")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Workspace{dir: dir}, nil
}

// Dir returns the root output directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// SnapshotPath returns the path of the binary state snapshot for id.
func (w *Workspace) SnapshotPath(id int) string {
	return filepath.Join(w.dir, fmt.Sprintf("out-%d.lm", id))
}

// ReportPath returns the path of the tabular report for id.
func (w *Workspace) ReportPath(id int) string {
	return filepath.Join(w.dir, fmt.Sprintf("rep-%d.csv", id))
}

// LogPath returns the path of the job log for id.
func (w *Workspace) LogPath(id int) string {
	return filepath.Join(w.dir, fmt.Sprintf("sim-%d.log", id))
}

// SharedSnapshotPath returns the path of the shared initial condition.
func (w *Workspace) SharedSnapshotPath() string {
	return w.SnapshotPath(SharedID)
}

// CheckShared verifies the shared initial condition exists and is non-empty.
func (w *Workspace) CheckShared() error {
	info, err := os.Stat(w.SharedSnapshotPath())
	if err != nil || info.Size() == 0 {
		return ErrMissingSharedState
	}

	return nil
}

// Stage copies the shared initial condition to the private snapshot path for
// id. Each job mutates only its own copy, so concurrent jobs never write the
// same file.
func (w *Workspace) Stage(id int) error {
	if err := w.CheckShared(); err != nil {
		return err
	}

	src, err := os.Open(w.SharedSnapshotPath())
	if err != nil {
		return fmt.Errorf("failed to open shared initial condition: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(w.SnapshotPath(id))
	if err != nil {
		return fmt.Errorf("failed to create staged snapshot: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to copy shared initial condition: %w", err)
	}

	return dst.Close()
}

// RemoveShared deletes the shared initial condition artifact.
func (w *Workspace) RemoveShared() error {
	if err := os.Remove(w.SharedSnapshotPath()); err != nil {
		return fmt.Errorf("failed to remove shared initial condition: %w", err)
	}

	return nil
}
