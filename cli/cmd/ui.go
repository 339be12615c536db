package cmd

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/meshkit-io/chisel/adapter"
	"github.com/meshkit-io/chisel/cli/tui"
	"github.com/meshkit-io/chisel/journal"
	"github.com/meshkit-io/chisel/metrics"
	"github.com/meshkit-io/chisel/types"
)

// UICommand starts the interactive terminal session.
var UICommand = &cli.Command{
	Name:  "ui",
	Usage: "Interactive session: submit edits and watch them run",
	Flags: append(CommonFlags(),
		&cli.IntFlag{
			Name:  "queue-depth",
			Usage: "Max queued submissions before rejection",
		},
	),
	Action: uiAction,
}

func uiAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if depth := c.Int("queue-depth"); depth > 0 {
		cfg.QueueDepth = depth
	}
	logger, err := initLogger(cfg)
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

	return tui.Run(tui.Config{
		Executor:   orch,
		QueueDepth: cfg.QueueDepth,
		OnComplete: func(report *types.RunReport, req *types.EditRequest) {
			if report == nil {
				return
			}
			if jnl != nil {
				if err := jnl.Append(journal.FromReport(report, req)); err != nil {
					logger.Warn("journal append failed", map[string]any{"error": err.Error()})
				}
			}
			if ad != nil {
				if err := ad.Publish(context.Background(), adapter.FromReport(report, req.RunTextureRepaint)); err != nil {
					logger.Warn("run-completed publish failed", map[string]any{"error": err.Error()})
				}
			}
		},
	})
}
