package cmd

import (
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/meshkit-io/chisel/artifacts"
	"github.com/meshkit-io/chisel/cli/render"
	"github.com/meshkit-io/chisel/workspace"
)

// runRow is one listed run workspace.
type runRow struct {
	RunID     string    `json:"run_id"`
	Artifacts []string  `json:"artifacts"`
	Modified  time.Time `json:"modified"`
}

// ListCommand lists run workspaces under the runs root.
var ListCommand = &cli.Command{
	Name:  "list",
	Usage: "List run workspaces and their collected artifacts",
	Flags: append(CommonFlags(),
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Show at most N most recent runs (0 = all)",
		},
	),
	Action: listAction,
}

func listAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	rows, err := listRuns(cfg.RunsRoot, c.Int("limit"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if err := r.Render(rows); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return nil
}

// listRuns scans the runs root, newest first. Run ids sort by allocation
// time, so name order is time order. A missing root lists zero runs.
func listRuns(root string, limit int) ([]runRow, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []runRow{}, nil
		}
		return nil, err
	}

	alloc := workspace.NewAllocator(root)
	rows := make([]runRow, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		row := runRow{
			RunID:     e.Name(),
			Artifacts: artifacts.Collect(alloc.OutputDirFor(e.Name())),
		}
		if info, err := e.Info(); err == nil {
			row.Modified = info.ModTime().UTC()
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].RunID > rows[j].RunID })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
