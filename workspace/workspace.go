// Package workspace allocates isolated per-run directory trees.
//
// Each run owns a uniquely-named subtree of the runs root for its whole
// lifetime. Concurrent runs never share directories: uniqueness rests on
// the random id suffix, not on locking. Teardown is the caller's
// responsibility; allocation never deletes anything.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunContext identifies one run and its directory tree. Created once per
// request, owned exclusively by that request, never reused.
type RunContext struct {
	// RunID is unique per process lifetime with overwhelming probability
	// (UTC timestamp plus random suffix). Sortable by allocation time.
	RunID string
	// Root is the run's workspace directory.
	Root string
	// InputDir holds resolved request inputs. Exists before any stage runs.
	InputDir string
	// OutputDir receives stage artifacts. Exists before any stage runs.
	OutputDir string
}

// Allocator creates run workspaces under a fixed root directory.
type Allocator struct {
	runsRoot string
}

// NewAllocator returns an allocator rooted at runsRoot.
func NewAllocator(runsRoot string) *Allocator {
	return &Allocator{runsRoot: runsRoot}
}

// Root returns the runs root directory.
func (a *Allocator) Root() string { return a.runsRoot }

// OutputDirFor returns the output directory path for runID without
// allocating anything.
func (a *Allocator) OutputDirFor(runID string) string {
	return filepath.Join(a.runsRoot, runID, "output")
}

// Allocate creates a new run workspace with eagerly-created input/ and
// output/ subdirectories. runID overrides the generated id when
// non-empty (caller-supplied ids must be path-safe).
func (a *Allocator) Allocate(runID string) (*RunContext, error) {
	if runID == "" {
		runID = NewRunID(time.Now().UTC())
	} else if err := validateRunID(runID); err != nil {
		return nil, err
	}

	root := filepath.Join(a.runsRoot, runID)
	rc := &RunContext{
		RunID:     runID,
		Root:      root,
		InputDir:  filepath.Join(root, "input"),
		OutputDir: filepath.Join(root, "output"),
	}

	if err := os.MkdirAll(rc.InputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create input dir: %w", err)
	}
	if err := os.MkdirAll(rc.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return rc, nil
}

// NewRunID builds a run id from a UTC timestamp component plus an
// 8-hex random suffix guarding against same-timestamp collisions.
func NewRunID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s", now.Format("20060102_150405"), suffix)
}

// validateRunID rejects caller-supplied ids that would escape the runs
// root or collide with path syntax.
func validateRunID(runID string) error {
	if strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return fmt.Errorf("invalid run id %q", runID)
	}
	return nil
}
