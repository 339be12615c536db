package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/meshkit-io/chisel/cli/render"
	"github.com/meshkit-io/chisel/types"
)

// Commit is the git revision baked in at build time via ldflags.
var Commit = "unknown"

// versionInfo is the rendered version payload.
type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// VersionCommand prints version information.
var VersionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print version information",
	Flags: []cli.Flag{FormatFlag},
	Action: func(c *cli.Context) error {
		r, err := render.NewRenderer(c)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		return r.Render(&versionInfo{Version: types.Version, Commit: Commit})
	},
}
