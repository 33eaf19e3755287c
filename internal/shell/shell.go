// Package shell provides helpers for running shell commands and probing the
// system PATH.
package shell

import (
	"context"
	"errors"
	"os/exec"
)

// Eval executes command and returns true when it exits 0 (success).
// A non-zero exit is not treated as a Go error; only execution failures are.
func Eval(ctx context.Context, command string) (exitsZero bool, err error) {
	cmd := Command(ctx, command)
	runErr := cmd.Run()
	if runErr == nil {
		return true, nil
	}
	if _, ok := ExitCode(runErr); ok {
		return false, nil
	}
	return false, runErr
}

// Command builds an *exec.Cmd that runs command through sh -c.
func Command(ctx context.Context, command string) *exec.Cmd {
	return exec.CommandContext(ctx, "sh", "-c", command)
}

// Present reports whether an executable called name can be found on PATH.
func Present(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// ExitCode returns the exit status of the process that produced err, if err
// (or anything it wraps) is an *exec.ExitError.
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
