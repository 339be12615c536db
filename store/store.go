// Package store persists run result archives outside the workspace.
//
// The workspace itself is the system of record for a run; a Store is an
// optional, fire-and-forget copy of the packaged archive to durable
// storage (shared filesystem or an S3-compatible bucket).
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store writes named run files to a storage backend.
type Store interface {
	// Put writes data under the run's prefix. Overwrites silently.
	Put(ctx context.Context, runID, name string, data []byte) error

	// Close releases backend resources.
	Close() error
}

// FSStore writes archives under a root directory, one subdirectory per
// run.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem-backed store rooted at root.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("fs store requires a root directory")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &FSStore{root: root}, nil
}

// Put writes data to <root>/<runID>/<name>.
func (s *FSStore) Put(_ context.Context, runID, name string, data []byte) error {
	dir := filepath.Join(s.root, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filepath.Base(name)), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Close implements Store.
func (s *FSStore) Close() error { return nil }

// Verify FSStore implements Store.
var _ Store = (*FSStore)(nil)
