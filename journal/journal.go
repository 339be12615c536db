// Package journal keeps a persistent, append-only record of every
// request handled by this process.
//
// The journal is independent of per-run logs returned to callers: it
// survives across runs and records parameters plus terminal outcome,
// one msgpack-encoded record per request. Corrupt tails (e.g. from a
// crash mid-append) truncate reads rather than failing them.
package journal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/meshkit-io/chisel/iox"
	"github.com/meshkit-io/chisel/types"
)

// Record is one journaled request.
type Record struct {
	RunID          string    `msgpack:"run_id"`
	Ts             time.Time `msgpack:"ts"`
	Status         string    `msgpack:"status"`
	Message        string    `msgpack:"message,omitempty"`
	ArtifactCount  int       `msgpack:"artifact_count"`
	DurationMs     int64     `msgpack:"duration_ms"`
	TextureRepaint bool      `msgpack:"texture_repaint"`
	RenderMethod   string    `msgpack:"render_method,omitempty"`
}

// FromReport builds a journal record from a terminal run report.
func FromReport(report *types.RunReport, req *types.EditRequest) Record {
	rec := Record{
		RunID:         report.RunID,
		Ts:            time.Now().UTC(),
		Status:        string(report.Status),
		Message:       report.Message,
		ArtifactCount: len(report.ArtifactNames),
		DurationMs:    report.Duration.Milliseconds(),
	}
	if req != nil {
		rec.TextureRepaint = req.RunTextureRepaint
		rec.RenderMethod = req.Repaint.RenderMethod
	}
	return rec
}

// Journal appends records to a single file. Safe for concurrent use.
type Journal struct {
	mu  sync.Mutex
	f   *os.File
	enc *msgpack.Encoder
}

// Open opens (creating if needed) the journal at path in append mode.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{f: f, enc: msgpack.NewEncoder(f)}, nil
}

// Append writes one record and syncs it to disk.
func (j *Journal) Append(rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode journal record: %w", err)
	}
	return j.f.Sync()
}

// Close closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.f.Close()
}

// ReadAll decodes every record in the journal at path, oldest first.
// A missing file yields no records. A corrupt tail ends the read early.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer iox.DiscardClose(f)

	dec := msgpack.NewDecoder(f)
	var records []Record
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			// Torn final record from a crash mid-append.
			return records, nil
		}
		records = append(records, rec)
	}
}
