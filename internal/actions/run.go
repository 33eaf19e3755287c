package actions

import (
	"context"
	"fmt"

	"github.com/filaco/dots/internal/color"
	"github.com/filaco/dots/internal/shell"
)

// RunAction executes an inline shell command through sh -c with the terminal
// attached.
type RunAction struct {
	Label   string // optional human-readable summary
	Command string
}

func (a *RunAction) Describe() string {
	if a.Label != "" {
		return a.Label
	}
	return fmt.Sprintf("run %q", a.Command)
}

func (a *RunAction) CommandLine() string {
	return a.Command
}

func (a *RunAction) Run(ctx context.Context, dryRun bool) error {
	if dryRun {
		fmt.Printf("    %s\n", color.Dim("[dry-run] "+a.Command))
		return nil
	}
	return interactive(shell.Command(ctx, a.Command)).Run()
}
