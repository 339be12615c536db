//nolint:revive // types is a common Go package naming convention
package types

// Version is the canonical project version. All components (CLI, job
// handler, TUI) share a single version.
const Version = "0.3.0"
