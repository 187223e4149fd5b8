// Package runner invokes external executables synchronously and captures
// their combined output.
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// LaunchFailureCode is the exit code reported when the process could not be started.
const LaunchFailureCode = -1

// For mocking in tests
var execCommand = exec.Command

// Result is the uniform outcome of a Run call.
type Result struct {
	// Output holds stdout and stderr interleaved in the order they were written.
	Output   string
	ExitCode int
	// LaunchErr is set when the executable could not be started at all.
	LaunchErr error
}

// Success reports whether the process started and exited with status 0.
func (r Result) Success() bool {
	return r.LaunchErr == nil && r.ExitCode == 0
}

// Runner runs one external process per call and blocks until it exits.
type Runner interface {
	Run(executable string, args []string) Result
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct{}

// New returns a Runner that spawns real processes.
func New() *ExecRunner {
	return &ExecRunner{}
}

// Run starts executable with args, drains its merged output and waits for it
// to exit. It never returns a Go error: launch failures are reported through
// Result.LaunchErr with LaunchFailureCode.
func (r *ExecRunner) Run(executable string, args []string) Result {
	cmd := execCommand(executable, args...)

	// A single buffer for both streams keeps the original interleaving and
	// is drained by os/exec before Wait returns.
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		return Result{
			Output:    fmt.Sprintf("failed to launch %s: %v", executable, err),
			ExitCode:  LaunchFailureCode,
			LaunchErr: err,
		}
	}

	err := cmd.Wait()
	res := Result{Output: out.String()}
	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode == -1 {
			// Killed by a signal; keep the result non-zero without claiming a launch failure.
			res.ExitCode = 1
		}
		return res
	}

	// I/O errors copying output after a successful start.
	res.ExitCode = 1
	if res.Output == "" {
		res.Output = err.Error()
	}
	return res
}

// Describe renders the invocation for logs.
func Describe(executable string, args []string) string {
	if len(args) == 0 {
		return executable
	}
	return executable + " " + strings.Join(args, " ")
}
