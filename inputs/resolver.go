// Package inputs materializes heterogeneous request inputs into a run's
// input directory.
//
// Each logical slot (mesh, edit image, mask image, optional render
// image) resolves from exactly one source, checked in precedence order:
// remote URL, inline base64, already-local file. Absence of all three
// leaves the slot unresolved; unresolved mandatory slots are aggregated
// and reported as a single error rather than failing fast per slot.
package inputs

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meshkit-io/chisel/iox"
	"github.com/meshkit-io/chisel/types"
)

// DefaultFetchTimeout bounds remote input fetches. Stage processes have
// no timeout; network fetches do.
const DefaultFetchTimeout = 60 * time.Second

// Slot binds a logical slot name to its source descriptor.
type Slot struct {
	// Name is the logical slot name reported in missing-slot errors.
	Name string
	// DefaultName is the destination filename when no hint is given.
	DefaultName string
	// Ref is the source descriptor.
	Ref types.FileRef
	// Required marks mandatory slots.
	Required bool
}

// MissingSlotsError aggregates unresolved mandatory slots, in checked
// order.
type MissingSlotsError struct {
	Slots []string
}

func (e *MissingSlotsError) Error() string {
	return "missing required inputs: " + strings.Join(e.Slots, ", ")
}

// Resolver writes slot sources into an input directory.
type Resolver struct {
	client *http.Client
}

// NewResolver returns a resolver whose remote fetches are bounded by
// timeout (DefaultFetchTimeout when zero).
func NewResolver(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Resolver{client: &http.Client{Timeout: timeout}}
}

// Resolve materializes every slot with a present source into inputDir
// and returns the destination filename per resolved slot name. The
// returned names are preserved verbatim into stage argument
// construction.
//
// Transport and decode failures abort immediately; a partially-written
// destination file may remain and must be treated as undefined. Missing
// mandatory slots are collected across all slots and returned as one
// *MissingSlotsError after the scan.
func (r *Resolver) Resolve(ctx context.Context, inputDir string, slots []Slot) (map[string]string, error) {
	resolved := make(map[string]string, len(slots))
	var missing []string

	for _, slot := range slots {
		if slot.Ref.IsZero() {
			if slot.Required {
				missing = append(missing, slot.Name)
			}
			continue
		}

		name := slot.Ref.Filename
		if name == "" {
			name = slot.DefaultName
		}
		dest := filepath.Join(inputDir, filepath.Base(name))

		if err := r.resolveOne(ctx, slot.Ref, dest); err != nil {
			return nil, fmt.Errorf("resolve %s: %w", slot.Name, err)
		}
		resolved[slot.Name] = filepath.Base(name)
	}

	if len(missing) > 0 {
		return nil, &MissingSlotsError{Slots: missing}
	}
	return resolved, nil
}

// resolveOne writes a single source to dest, honoring the URL, base64,
// local-path precedence.
func (r *Resolver) resolveOne(ctx context.Context, ref types.FileRef, dest string) error {
	switch {
	case ref.URL != "":
		return r.fetch(ctx, ref.URL, dest)
	case ref.Base64 != "":
		data, err := base64.StdEncoding.DecodeString(ref.Base64)
		if err != nil {
			return fmt.Errorf("decode base64: %w", err)
		}
		return os.WriteFile(dest, data, 0o644)
	default:
		return copyFile(ref.Path, dest)
	}
}

// fetch streams a remote input to dest. Non-2xx status is an error.
func (r *Resolver) fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer iox.DiscardClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer iox.DiscardClose(f)

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer iox.DiscardClose(in)

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer iox.DiscardClose(out)

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy to %s: %w", dest, err)
	}
	return nil
}

// RequestSlots builds the slot list for an edit request, in checked
// order: mesh, edit image, mask image, then the optional render image.
func RequestSlots(req *types.EditRequest) []Slot {
	return []Slot{
		{Name: types.SlotMesh, DefaultName: types.DefaultMeshName, Ref: req.Mesh, Required: true},
		{Name: types.SlotEditImage, DefaultName: types.DefaultEditImageName, Ref: req.EditImage, Required: true},
		{Name: types.SlotMaskImage, DefaultName: types.DefaultMaskImageName, Ref: req.MaskImage, Required: true},
		{Name: types.SlotRender, DefaultName: types.DefaultRenderImageName, Ref: req.RenderImage},
	}
}
