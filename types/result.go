//nolint:revive // types is a common Go package naming convention
package types

import (
	"encoding/base64"
	"time"
)

// Status is the terminal run status. There is no partial-success value:
// a failed repaint after a successful edit is still an error overall.
type Status string

const (
	// StatusOK indicates all requested stages exited zero.
	StatusOK Status = "ok"
	// StatusError indicates input resolution failed or a stage exited non-zero.
	StatusError Status = "error"
)

// StageResult is the immutable outcome of one external stage invocation.
// A non-zero exit code is a normal, reportable outcome, not an error.
type StageResult struct {
	// ExitCode is the process exit code, verbatim.
	ExitCode int
	// Log is "$ "+command, then stdout, then stderr, newline-joined.
	Log string
}

// OK reports whether the stage exited zero.
func (s StageResult) OK() bool { return s.ExitCode == 0 }

// ArtifactPayload is a self-describing inline artifact encoding.
// Payloads built from local bytes retain them so sinks read the data
// without a base64 round-trip.
type ArtifactPayload struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Base64    string `json:"base64"`

	raw []byte
}

// NewArtifactPayload builds a payload from raw bytes, retaining them
// for Bytes.
func NewArtifactPayload(name string, data []byte) ArtifactPayload {
	return ArtifactPayload{
		Name:      name,
		SizeBytes: int64(len(data)),
		Base64:    base64.StdEncoding.EncodeToString(data),
		raw:       data,
	}
}

// Bytes returns the raw artifact bytes, decoding the base64 form only
// for payloads that arrived off the wire.
func (p *ArtifactPayload) Bytes() ([]byte, error) {
	if p.raw != nil {
		return p.raw, nil
	}
	return base64.StdEncoding.DecodeString(p.Base64)
}

// RunReport is the terminal object returned to a front-end adapter.
// It is a value object with no shared mutable state across runs.
type RunReport struct {
	Status Status
	RunID  string
	// ArtifactNames is the subset of the fixed catalog present on disk,
	// in catalog order.
	ArtifactNames []string
	// Log is the concatenated log of every stage attempted so far.
	Log string
	// Message is a human-readable failure description (empty on success).
	Message string
	// Inline holds per-artifact payloads when inline mode was requested.
	Inline []ArtifactPayload
	// Archive holds the zipped output directory when archive mode was
	// requested.
	Archive *ArtifactPayload
	// Duration is the total pipeline duration.
	Duration time.Duration
}
