package pipeline

// Phase is a coarse progress checkpoint. External stages stream no
// intermediate progress; these five checkpoints are the only progress
// surface front-ends get.
type Phase string

const (
	// PhasePreparing covers workspace allocation and input resolution.
	PhasePreparing Phase = "preparing"
	// PhaseLaunching covers stage argument construction.
	PhaseLaunching Phase = "launching"
	// PhaseRunning covers stage execution (edit, then optional repaint).
	PhaseRunning Phase = "running"
	// PhaseCollecting covers output discovery.
	PhaseCollecting Phase = "collecting"
	// PhaseDone covers packaging and completion.
	PhaseDone Phase = "done"
)

// ProgressReporter receives phase checkpoints during a run. Implementations
// must be fast; they are called on the run's control goroutine.
type ProgressReporter interface {
	Report(phase Phase, detail string)
}

// NopProgress discards all checkpoints.
type NopProgress struct{}

// Report implements ProgressReporter.
func (NopProgress) Report(Phase, string) {}
