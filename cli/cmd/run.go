package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/meshkit-io/chisel/adapter"
	"github.com/meshkit-io/chisel/cli/render"
	"github.com/meshkit-io/chisel/journal"
	"github.com/meshkit-io/chisel/metrics"
	"github.com/meshkit-io/chisel/types"
)

// runResult is the rendered outcome of a one-shot run.
type runResult struct {
	RunID     string   `json:"run_id"`
	Status    string   `json:"status"`
	Message   string   `json:"message,omitempty"`
	Duration  string   `json:"duration"`
	Artifacts []string `json:"artifacts,omitempty"`
	OutputDir string   `json:"output_dir"`
}

// RunCommand executes one mesh edit end to end from local files.
var RunCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run one mesh edit against local input files",
	UsageText: "chisel run --mesh model.glb --edit-image 2d_edit.png --mask-image 2d_mask.png [options]",
	Flags: append(CommonFlags(),
		&cli.StringFlag{Name: "mesh", Usage: "Path to the source mesh (.glb)"},
		&cli.StringFlag{Name: "edit-image", Usage: "Path to the 2D edit image"},
		&cli.StringFlag{Name: "mask-image", Usage: "Path to the 2D mask image"},
		&cli.StringFlag{Name: "render-image", Usage: "Path to an optional pre-rendered view"},
		&cli.StringFlag{Name: "run-id", Usage: "Override the generated run id"},

		&cli.Float64Flag{Name: "azimuth", Value: 0.0, Usage: "Camera azimuth in radians"},
		&cli.Float64Flag{Name: "elevation", Value: 0.0, Usage: "Camera elevation in radians"},
		&cli.Float64Flag{Name: "scale", Value: 2.0, Usage: "Camera distance scale"},
		&cli.IntFlag{Name: "attentive-2d", Value: 8, Usage: "Attentive 2D layer count"},
		&cli.Float64Flag{Name: "cut-off-p", Value: 0.5, Usage: "Attention cut-off percentile"},
		&cli.Float64Flag{Name: "topk-percent-2d", Value: 0.2, Usage: "Top-k attention percentage"},
		&cli.Float64Flag{Name: "threshold-percent-2d", Value: 0.1, Usage: "Attention threshold percentage"},
		&cli.IntFlag{Name: "step-pruning", Value: 5, Usage: "Denoising steps before pruning"},
		&cli.Float64Flag{Name: "edit-strength", Value: 0.7, Usage: "Edit strength"},
		&cli.Float64Flag{Name: "guidance-scale", Value: 7.5, Usage: "Classifier-free guidance scale"},

		&cli.BoolFlag{Name: "repaint", Usage: "Run the texture repaint stage after the edit"},
		&cli.IntFlag{Name: "seed", Value: 99999, Usage: "Repaint random seed"},
		&cli.StringFlag{Name: "render-method", Value: types.RenderMethodNvdiffrast, Usage: "Repaint renderer: nvdiffrast or bpy"},

		&cli.BoolFlag{Name: "show-log", Usage: "Print the combined stage log on completion"},
	),
	Action: runAction,
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	logger, err := initLogger(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	jnl, err := openJournal(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if jnl != nil {
		defer jnl.Close()
	}
	ad, err := buildAdapter(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if ad != nil {
		defer ad.Close()
	}

	orch := buildOrchestrator(cfg, metrics.NewCollector(), logger)
	req := requestFromFlags(c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := orch.Execute(ctx, req, nil)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if jnl != nil {
		if err := jnl.Append(journal.FromReport(report, req)); err != nil {
			logger.Warn("journal append failed", map[string]any{"error": err.Error()})
		}
	}
	if ad != nil {
		if err := ad.Publish(ctx, adapter.FromReport(report, req.RunTextureRepaint)); err != nil {
			logger.Warn("run-completed publish failed", map[string]any{"error": err.Error()})
		}
	}

	if err := r.Render(&runResult{
		RunID:     report.RunID,
		Status:    string(report.Status),
		Message:   report.Message,
		Duration:  report.Duration.String(),
		Artifacts: report.ArtifactNames,
		OutputDir: orch.OutputDir(report.RunID),
	}); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if c.Bool("show-log") && report.Log != "" {
		if _, err := os.Stdout.WriteString(report.Log + "\n"); err != nil {
			return cli.Exit(err.Error(), 2)
		}
	}

	if report.Status != types.StatusOK {
		return cli.Exit("", 1)
	}
	return nil
}

// requestFromFlags builds the typed request from command-line flags.
// Every parameter flag carries its documented default, so absent flags
// and explicit default values are indistinguishable here, which is the
// same outcome either way.
func requestFromFlags(c *cli.Context) *types.EditRequest {
	return &types.EditRequest{
		RunID:       c.String("run-id"),
		Mesh:        types.FileRef{Path: c.String("mesh")},
		EditImage:   types.FileRef{Path: c.String("edit-image")},
		MaskImage:   types.FileRef{Path: c.String("mask-image")},
		RenderImage: types.FileRef{Path: c.String("render-image")},
		Edit: types.EditParams{
			Azimuth:            c.Float64("azimuth"),
			Elevation:          c.Float64("elevation"),
			Scale:              c.Float64("scale"),
			Attentive2D:        c.Int("attentive-2d"),
			CutOffP:            c.Float64("cut-off-p"),
			TopKPercent2D:      c.Float64("topk-percent-2d"),
			ThresholdPercent2D: c.Float64("threshold-percent-2d"),
			StepPruning:        c.Int("step-pruning"),
			EditStrength:       c.Float64("edit-strength"),
			GuidanceScale:      c.Float64("guidance-scale"),
		},
		RunTextureRepaint: c.Bool("repaint"),
		Repaint: types.RepaintParams{
			Seed:         c.Int("seed"),
			RenderMethod: c.String("render-method"),
		},
	}
}
