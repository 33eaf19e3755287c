// Package gate asks the operator before every side-effecting action runs.
//
// A Gate is called once per action with the current Mode and returns the
// Outcome together with the (possibly updated) Mode. Nothing is kept between
// calls; the caller threads the Mode through the run. Choosing "exit" yields
// Aborted and sets Mode.Aborted, after which every further call returns
// Aborted without prompting.
package gate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/filaco/dots/internal/actions"
	"github.com/filaco/dots/internal/color"
)

// ErrAborted is returned up the stack once the operator chose to exit.
var ErrAborted = errors.New("aborted by operator")

// Question is what the operator is asked before each action.
const Question = "Proceed? [y]es / [e]xit / [s]kip / yes for [a]ll: "

// Mode is the run-wide confirmation state.
type Mode struct {
	NoConfirm bool // run everything without asking
	Aborted   bool // the operator chose exit; nothing else may run
}

// Outcome is the terminal state of one gated action.
type Outcome int

const (
	Executed Outcome = iota + 1
	Skipped
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Executed:
		return "executed"
	case Skipped:
		return "skipped"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Choice is a parsed operator answer.
type Choice int

const (
	ChoiceUnknown Choice = iota
	ChoiceYes
	ChoiceExit
	ChoiceSkip
	ChoiceYesForAll
)

// ParseChoice maps an answer to a Choice. Matching ignores case and
// surrounding whitespace.
func ParseChoice(answer string) Choice {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return ChoiceYes
	case "e", "exit":
		return ChoiceExit
	case "s", "skip":
		return ChoiceSkip
	case "a", "all", "yesforall", "yes-for-all":
		return ChoiceYesForAll
	default:
		return ChoiceUnknown
	}
}

// Prompter asks the operator a question and returns the raw answer.
// io.EOF means no more answers will ever come.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Gate wraps action execution with operator confirmation.
type Gate struct {
	Prompter Prompter
	Logger   *zap.Logger
	Out      io.Writer // where pending actions are rendered
	DryRun   bool      // forwarded to Action.Run
}

// New creates a Gate. A nil logger is replaced with a no-op one.
func New(prompter Prompter, logger *zap.Logger, out io.Writer) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{Prompter: prompter, Logger: logger, Out: out}
}

// Run confirms and executes action according to mode.
//
// The returned error is the action's own failure, passed through untouched,
// or a prompting failure. Skipped and Aborted outcomes never carry an error.
func (g *Gate) Run(ctx context.Context, action actions.Action, mode Mode) (Outcome, Mode, error) {
	if mode.Aborted {
		return Aborted, mode, nil
	}
	if mode.NoConfirm {
		return g.execute(ctx, action, mode)
	}

	g.render(action)
	for {
		if err := ctx.Err(); err != nil {
			return 0, mode, err
		}
		answer, err := g.Prompter.Ask(ctx, Question)
		if errors.Is(err, io.EOF) {
			g.Logger.Warn("no more input, treating as exit", zap.String("action", action.Describe()))
			mode.Aborted = true
			return Aborted, mode, nil
		}
		if err != nil {
			return 0, mode, fmt.Errorf("read answer: %w", err)
		}

		switch ParseChoice(answer) {
		case ChoiceYes:
			return g.execute(ctx, action, mode)
		case ChoiceYesForAll:
			mode.NoConfirm = true
			g.Logger.Info("confirmations disabled for the rest of the run")
			return g.execute(ctx, action, mode)
		case ChoiceSkip:
			g.Logger.Info("skipped", zap.String("action", action.Describe()))
			return Skipped, mode, nil
		case ChoiceExit:
			g.Logger.Warn("exit requested", zap.String("action", action.Describe()))
			mode.Aborted = true
			return Aborted, mode, nil
		default:
			g.Logger.Debug("unrecognised answer", zap.String("answer", strings.TrimSpace(answer)))
		}
	}
}

func (g *Gate) execute(ctx context.Context, action actions.Action, mode Mode) (Outcome, Mode, error) {
	g.Logger.Info("running", zap.String("action", action.Describe()))
	return Executed, mode, action.Run(ctx, g.DryRun)
}

func (g *Gate) render(action actions.Action) {
	if g.Out == nil {
		return
	}
	fmt.Fprintf(g.Out, "\n%s %s\n", color.BoldYellow("==>"), color.Bold(action.Describe()))
	if c, ok := action.(actions.Commander); ok {
		if line := c.CommandLine(); line != "" {
			fmt.Fprintf(g.Out, "    %s\n", color.Dim("$ "+line))
		}
	}
}
