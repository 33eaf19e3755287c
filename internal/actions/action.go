// Package actions implements the side-effecting steps an installation run is
// made of. Every action shells out (or touches the filesystem) synchronously
// and reports failure through its returned error.
package actions

import (
	"context"
	"os"
	"os/exec"
	"strings"
)

// Action is a single executable step.
type Action interface {
	// Describe returns a human-readable summary of the action.
	Describe() string
	// Run executes the action. When dryRun is true it only prints what would happen.
	Run(ctx context.Context, dryRun bool) error
}

// Commander is optionally implemented by actions that boil down to a single
// command line. The confirmation gate shows it beneath the description so the
// operator sees exactly what is about to run.
type Commander interface {
	CommandLine() string
}

// interactive wires a command to the terminal so sudo and package managers
// can ask their own questions.
func interactive(cmd *exec.Cmd) *exec.Cmd {
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd
}

func joinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'$|&;<>*?") {
			quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
}
