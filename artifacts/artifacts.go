// Package artifacts discovers and packages pipeline outputs.
//
// Discovery checks the fixed artifact catalog against the output
// directory by existence only; content is never validated. Packaging
// has two independent modes: inline per-artifact payloads and a single
// zip archive of the whole output directory.
package artifacts

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/meshkit-io/chisel/iox"
	"github.com/meshkit-io/chisel/types"
)

// ArchiveName is the logical name of the output-directory archive.
const ArchiveName = "results.zip"

// Collect returns the subset of the fixed catalog present in outputDir,
// in catalog order.
func Collect(outputDir string) []string {
	var present []string
	for _, name := range types.ArtifactCatalog() {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err == nil {
			present = append(present, name)
		}
	}
	return present
}

// InlinePayloads reads each named artifact fully and encodes it as a
// self-describing payload. No size cap is enforced; very large meshes
// are read into memory whole.
func InlinePayloads(outputDir string, names []string) ([]types.ArtifactPayload, error) {
	payloads := make([]types.ArtifactPayload, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(outputDir, name))
		if err != nil {
			return nil, fmt.Errorf("read artifact %s: %w", name, err)
		}
		payloads = append(payloads, types.NewArtifactPayload(name, data))
	}
	return payloads, nil
}

// Archive zips the entire directory, cataloged artifacts and
// intermediates alike, into one payload. An empty directory yields a
// valid empty archive.
func Archive(outputDir string) (*types.ArtifactPayload, error) {
	data, err := zipDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", outputDir, err)
	}
	p := types.NewArtifactPayload(ArchiveName, data)
	return &p, nil
}

// zipDir builds an in-memory zip of dir with archive paths relative to
// dir.
func zipDir(dir string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer iox.DiscardClose(f)

		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
