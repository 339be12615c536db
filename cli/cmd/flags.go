// Package cmd provides CLI commands for the chisel binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags.
var (
	// ConfigFlag points at the chisel.yaml config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to chisel.yaml",
		Value:   "chisel.yaml",
	}

	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// RunsRootFlag overrides the configured runs directory.
	RunsRootFlag = &cli.StringFlag{
		Name:  "runs-root",
		Usage: "Directory run workspaces are allocated under",
	}
)

// CommonFlags returns the flags every command accepts.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		FormatFlag,
		RunsRootFlag,
	}
}
