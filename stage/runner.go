// Package stage invokes external processing stages as child processes.
//
// A stage is an opaque, long-running computation judged solely by its
// exit code plus captured text output. Invocation is synchronous and has
// no timeout: these are heavy accelerator-bound computations and may
// legitimately run for a long time. A non-zero exit is a normal,
// reportable outcome, never an error value.
package stage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/meshkit-io/chisel/types"
)

// Result is the raw outcome of one child process execution.
type Result struct {
	// ExitCode is the process exit code, verbatim.
	ExitCode int
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
}

// Runner runs one stage to completion. The interface exists so tests can
// substitute a fake and so a future in-process implementation can slot
// in without touching the orchestrator.
type Runner interface {
	Run(ctx context.Context, argv []string, workdir string) (*Result, error)
}

// ExecRunner runs stages via os/exec.
type ExecRunner struct{}

// Run executes argv with workdir as the working directory, capturing
// stdout and stderr separately. A non-zero exit code is returned in the
// Result; an error is returned only when the process could not be
// executed at all (e.g. binary not found).
func (ExecRunner) Run(ctx context.Context, argv []string, workdir string) (*Result, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty argv")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = workdir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("executing %s: %w", argv[0], runErr)
		}
	}

	return &Result{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// Invoke runs argv via r and folds the outcome into a StageResult whose
// log concatenates the command line, stdout (if non-empty), and stderr
// (if non-empty), newline-joined.
func Invoke(ctx context.Context, r Runner, argv []string, workdir string) (types.StageResult, error) {
	res, err := r.Run(ctx, argv, workdir)
	if err != nil {
		return types.StageResult{}, err
	}

	parts := []string{"$ " + strings.Join(argv, " ")}
	if res.Stdout != "" {
		parts = append(parts, res.Stdout)
	}
	if res.Stderr != "" {
		parts = append(parts, res.Stderr)
	}

	return types.StageResult{
		ExitCode: res.ExitCode,
		Log:      strings.Join(parts, "\n"),
	}, nil
}

// Verify ExecRunner implements Runner.
var _ Runner = ExecRunner{}
