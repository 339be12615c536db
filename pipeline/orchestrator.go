// Package pipeline sequences the two-stage mesh-edit pipeline.
//
// The state machine is linear with one conditional branch:
//
//	Staged -> EditRunning -> Failed            (edit exit != 0)
//	                      -> Done              (exit 0, repaint not requested)
//	                      -> TextureRunning    (exit 0, repaint requested)
//	TextureRunning -> Failed                   (repaint exit != 0; no partial success)
//	               -> Done
//
// Each stage runs at most once; there are no retries. Concurrency across
// runs is the hosting front-end's concern; the orchestrator takes no
// locks and relies entirely on workspace isolation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/meshkit-io/chisel/artifacts"
	"github.com/meshkit-io/chisel/inputs"
	"github.com/meshkit-io/chisel/log"
	"github.com/meshkit-io/chisel/metrics"
	"github.com/meshkit-io/chisel/stage"
	"github.com/meshkit-io/chisel/types"
	"github.com/meshkit-io/chisel/workspace"
)

// Config configures an Orchestrator. Allocator is required; everything
// else has a usable default.
type Config struct {
	// Allocator creates per-run workspaces.
	Allocator *workspace.Allocator
	// Edit is the geometry-edit stage command.
	Edit stage.Command
	// Repaint is the texture-repaint stage command.
	Repaint stage.Command
	// Runner executes stage processes. Nil uses stage.ExecRunner.
	Runner stage.Runner
	// Resolver materializes request inputs. Nil uses the default fetch
	// timeout.
	Resolver *inputs.Resolver
	// Collector records process metrics. Nil disables metrics.
	Collector *metrics.Collector
	// Logger is the process logger. Nil uses log.L().
	Logger *log.Logger
}

// Orchestrator drives requests through the pipeline. Safe for use from
// multiple goroutines: per-run state lives on the stack and in the
// run's workspace.
type Orchestrator struct {
	cfg Config
}

// New creates an orchestrator, filling config defaults.
func New(cfg Config) *Orchestrator {
	if cfg.Runner == nil {
		cfg.Runner = stage.ExecRunner{}
	}
	if cfg.Resolver == nil {
		cfg.Resolver = inputs.NewResolver(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.L()
	}
	return &Orchestrator{cfg: cfg}
}

// Execute runs one request end to end and returns its terminal report.
//
// Request-level failures (unresolved inputs, non-zero stage exits, a
// stage binary that cannot be launched) are reported in the RunReport,
// not as an error. The error return is reserved for internal faults
// that the hosting runtime should see (packaging I/O failures and the
// like); such faults are logged with full context before being
// returned.
func (o *Orchestrator) Execute(ctx context.Context, req *types.EditRequest, progress ProgressReporter) (*types.RunReport, error) {
	if progress == nil {
		progress = NopProgress{}
	}
	start := time.Now()

	// The only cancellable point: once a stage process starts there is
	// no kill-on-timeout or user abort. Caller cancellation (client
	// disconnect, SIGINT) is detached past this check so it cannot
	// reach the child processes.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	progress.Report(PhasePreparing, "preparing run directory")
	o.cfg.Collector.IncRunStarted()

	rc, err := o.cfg.Allocator.Allocate(req.RunID)
	if err != nil {
		return nil, fmt.Errorf("allocate workspace: %w", err)
	}

	logger := o.cfg.Logger.WithRun(rc.RunID)
	logger.Info("request start", map[string]any{
		"texture_repaint": req.RunTextureRepaint,
		"render_method":   req.Repaint.RenderMethod,
		"attentive_2d":    req.Edit.Attentive2D,
		"guidance_scale":  req.Edit.GuidanceScale,
	})

	files, err := o.cfg.Resolver.Resolve(ctx, rc.InputDir, inputs.RequestSlots(req))
	if err != nil {
		// Input-resolution errors (missing slots, transport failures)
		// are reported before any stage runs. The workspace stays on
		// disk for inspection.
		logger.Error("input resolution failed", map[string]any{"error": err.Error()})
		o.cfg.Collector.IncRunFailed()
		return o.failed(rc, "", err.Error(), start), nil
	}

	progress.Report(PhaseLaunching, "launching edit stage")
	editArgv := o.cfg.Edit.Argv(stage.EditArgs(rc.InputDir, rc.OutputDir, files, req.Edit))

	progress.Report(PhaseRunning, "running edit stage (this can take a while)")
	editRes, err := stage.Invoke(ctx, o.cfg.Runner, editArgv, o.cfg.Edit.Workdir)
	if err != nil {
		logger.Error("edit stage could not be launched", map[string]any{"error": err.Error()})
		o.cfg.Collector.IncEditStage(true)
		o.cfg.Collector.IncRunFailed()
		return o.failed(rc, "", fmt.Sprintf("edit stage could not be launched: %v", err), start), nil
	}
	o.cfg.Collector.IncEditStage(!editRes.OK())

	runLog := editRes.Log
	if !editRes.OK() {
		// Terminal: the repaint stage is never attempted after an edit
		// failure, even when requested.
		logger.Error("edit stage failed", map[string]any{"exit_code": editRes.ExitCode})
		o.cfg.Collector.IncRunFailed()
		return o.failed(rc, runLog, fmt.Sprintf("edit stage failed (exit code %d)", editRes.ExitCode), start), nil
	}

	if req.RunTextureRepaint {
		progress.Report(PhaseRunning, "running texture repaint")
		repaintArgv := o.cfg.Repaint.Argv(stage.RepaintArgs(rc.OutputDir, req.Repaint))

		repaintRes, err := stage.Invoke(ctx, o.cfg.Runner, repaintArgv, o.cfg.Repaint.Workdir)
		if err != nil {
			logger.Error("repaint stage could not be launched", map[string]any{"error": err.Error()})
			o.cfg.Collector.IncRepaintStage(true)
			o.cfg.Collector.IncRunFailed()
			return o.failed(rc, runLog, fmt.Sprintf("texture repaint could not be launched: %v", err), start), nil
		}
		o.cfg.Collector.IncRepaintStage(!repaintRes.OK())

		runLog = runLog + "\n\n" + repaintRes.Log
		if !repaintRes.OK() {
			// Overall failure even though the edit stage succeeded; its
			// artifacts remain on disk but are not surfaced.
			logger.Error("texture repaint failed", map[string]any{"exit_code": repaintRes.ExitCode})
			o.cfg.Collector.IncRunFailed()
			return o.failed(rc, runLog, fmt.Sprintf("texture repaint failed (exit code %d)", repaintRes.ExitCode), start), nil
		}
	}

	progress.Report(PhaseCollecting, "collecting outputs")
	names := artifacts.Collect(rc.OutputDir)

	progress.Report(PhaseDone, "packaging results")
	report := &types.RunReport{
		Status:        types.StatusOK,
		RunID:         rc.RunID,
		ArtifactNames: names,
		Log:           runLog,
		Duration:      time.Since(start),
	}

	if req.ReturnFiles {
		payloads, err := artifacts.InlinePayloads(rc.OutputDir, names)
		if err != nil {
			logger.Error("inline packaging failed", map[string]any{"error": err.Error()})
			return nil, err
		}
		report.Inline = payloads
	}
	if req.ReturnZip {
		archive, err := artifacts.Archive(rc.OutputDir)
		if err != nil {
			logger.Error("archive packaging failed", map[string]any{"error": err.Error()})
			return nil, err
		}
		report.Archive = archive
	}

	o.cfg.Collector.IncRunCompleted()
	logger.Info("request done", map[string]any{
		"artifacts": len(names),
		"duration":  report.Duration.String(),
	})
	return report, nil
}

// failed builds an error-status report carrying the log of every stage
// attempted so far.
func (o *Orchestrator) failed(rc *workspace.RunContext, runLog, message string, start time.Time) *types.RunReport {
	return &types.RunReport{
		Status:   types.StatusError,
		RunID:    rc.RunID,
		Log:      runLog,
		Message:  message,
		Duration: time.Since(start),
	}
}

// OutputDir returns the output directory for a run id under this
// orchestrator's runs root. Used by front-ends that need direct access
// to artifacts on disk (the TUI previews files instead of decoding
// inline payloads).
func (o *Orchestrator) OutputDir(runID string) string {
	return o.cfg.Allocator.OutputDirFor(runID)
}
