// Package main provides the chisel CLI entrypoint.
//
// Usage:
//
//	chisel <command> [options]
//
// Exit codes for `run`:
//   - 0: run completed
//   - 1: run failed (unresolved inputs or a stage exited non-zero)
//   - 2: internal fault
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/meshkit-io/chisel/cli/cmd"
	"github.com/meshkit-io/chisel/types"
)

func main() {
	app := &cli.App{
		Name:           "chisel",
		Usage:          "Attentive mesh editing pipeline CLI",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, cmd.Commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.RunCommand,
			cmd.ServeCommand,
			cmd.UICommand,
			cmd.ListCommand,
			cmd.VersionCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already exited for cli.ExitCoder errors; this
		// covers errors that were not wrapped.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit() so run outcomes
// map onto process exit codes.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() yields "exit status N"; suppress it.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
