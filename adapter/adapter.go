// Package adapter defines the run-completion notification boundary.
//
// Adapters publish terminal run outcomes to downstream systems (job
// queues, dashboards). The front-end owns adapter lifecycle; publishing
// is best-effort and never affects the run result returned to the
// caller.
package adapter

import (
	"context"
	"time"

	"github.com/meshkit-io/chisel/types"
)

// RunCompletedEvent is the payload published when a run finishes.
type RunCompletedEvent struct {
	EventType      string   `json:"event_type"` // always "run_completed"
	RunID          string   `json:"run_id"`
	Status         string   `json:"status"` // ok or error
	Message        string   `json:"message,omitempty"`
	Artifacts      []string `json:"artifacts,omitempty"`
	TextureRepaint bool     `json:"texture_repaint"`
	DurationMs     int64    `json:"duration_ms"`
	Timestamp      string   `json:"timestamp"` // ISO 8601
	Version        string   `json:"version"`
}

// FromReport builds the completion event for a terminal run report.
func FromReport(report *types.RunReport, textureRepaint bool) *RunCompletedEvent {
	return &RunCompletedEvent{
		EventType:      "run_completed",
		RunID:          report.RunID,
		Status:         string(report.Status),
		Message:        report.Message,
		Artifacts:      report.ArtifactNames,
		TextureRepaint: textureRepaint,
		DurationMs:     report.Duration.Milliseconds(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Version:        types.Version,
	}
}

// Adapter publishes run completion events to a downstream system.
type Adapter interface {
	// Publish sends a run completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *RunCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
