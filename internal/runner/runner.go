// Package runner drives the installation sequence for a target machine.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"go.uber.org/zap"

	"github.com/filaco/dots/internal/actions"
	"github.com/filaco/dots/internal/ageutil"
	"github.com/filaco/dots/internal/audit"
	"github.com/filaco/dots/internal/color"
	"github.com/filaco/dots/internal/config"
	"github.com/filaco/dots/internal/gate"
	"github.com/filaco/dots/internal/shell"
)

// ErrUnknownTarget is returned by ParseTarget for anything but the known targets.
var ErrUnknownTarget = errors.New("unknown target")

// Target is the kind of machine being set up.
type Target string

const (
	Desktop Target = "desktop"
	Laptop  Target = "laptop"
	Server  Target = "server"
)

// Targets lists every valid target, default first.
var Targets = []Target{Desktop, Laptop, Server}

// ParseTarget validates s as a Target.
func ParseTarget(s string) (Target, error) {
	t := Target(s)
	if !slices.Contains(Targets, t) {
		return "", fmt.Errorf("%w %q (want one of %v)", ErrUnknownTarget, s, Targets)
	}
	return t, nil
}

// PackageGroups returns the keys of config.Packages installed for t, in order.
func (t Target) PackageGroups() []string {
	switch t {
	case Laptop:
		return []string{"common", "desktop", "laptop"}
	case Server:
		return []string{"common", "server"}
	default:
		return []string{"common", "desktop"}
	}
}

// Step is one stage of the install sequence. Actions is called only when the
// step is reached, so PATH lookups see whatever earlier steps installed.
type Step struct {
	Name    string
	Actions func(ctx context.Context, mode gate.Mode) []actions.Action
}

// Runner runs the install sequence through the confirmation gate.
type Runner struct {
	Config  config.Config
	Gate    *gate.Gate
	Logger  *zap.Logger
	Journal *audit.Journal         // optional
	Key     *ageutil.Key           // for encrypted dotfiles
	Present func(name string) bool // PATH lookup
	Check   func(ctx context.Context, command string) (bool, error)
	Command string                 // recorded in the journal
}

// New creates a Runner that looks executables up on the real PATH.
func New(cfg config.Config, g *gate.Gate, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Config:  cfg,
		Gate:    g,
		Logger:  logger,
		Key:     &ageutil.Key{IdentityFile: cfg.Age.Identity, Passphrase: cfg.Age.Passphrase},
		Present: shell.Present,
		Check:   shell.Eval,
		Command: "install",
	}
}

// Steps returns the install sequence for target.
func (r *Runner) Steps(target Target) []Step {
	return []Step{
		{Name: "sync package manager", Actions: r.syncActions},
		{Name: "install base dependencies", Actions: r.baseActions},
		{Name: "install AUR helper", Actions: r.helperActions},
		{Name: "install packages", Actions: func(_ context.Context, mode gate.Mode) []actions.Action {
			return r.packageActions(target, mode)
		}},
		{Name: "install special dependencies", Actions: r.specialActions},
		{Name: "environment setup", Actions: r.environmentActions},
		{Name: "dotfile sync", Actions: r.dotfileActions},
	}
}

// Install runs every step for target, threading mode through each gate call.
// It stops at the first failure, or with gate.ErrAborted once the operator
// exits. The returned mode reflects every choice made along the way.
func (r *Runner) Install(ctx context.Context, target Target, mode gate.Mode) (gate.Mode, error) {
	r.Logger.Info("starting install", zap.String("target", string(target)), zap.Bool("noconfirm", mode.NoConfirm))

	for _, step := range r.Steps(target) {
		acts := step.Actions(ctx, mode)
		if len(acts) == 0 {
			r.Logger.Debug("nothing to do", zap.String("step", step.Name))
			continue
		}
		r.Logger.Info(step.Name, zap.Int("actions", len(acts)))

		for _, action := range acts {
			outcome, next, err := r.Gate.Run(ctx, action, mode)
			mode = next
			r.record(target, step.Name, action, outcome, err)
			if err != nil {
				r.Logger.Error("action failed", zap.String("step", step.Name), zap.String("action", action.Describe()), zap.Error(err))
				return mode, fmt.Errorf("%s: %w", step.Name, err)
			}
			if outcome == gate.Aborted {
				return mode, gate.ErrAborted
			}
		}
	}

	r.Logger.Info("install finished", zap.String("target", string(target)))
	return mode, nil
}

// Plan writes the sequence for target without running anything. PATH lookups
// reflect the machine as it is now.
func (r *Runner) Plan(ctx context.Context, w io.Writer, target Target, mode gate.Mode) {
	fmt.Fprintf(w, "%s %s\n", color.Bold("install sequence for"), color.Cyan(string(target)))
	for i, step := range r.Steps(target) {
		fmt.Fprintf(w, "\n%s %s\n", color.BoldYellow(fmt.Sprintf("%d.", i+1)), color.Bold(step.Name))
		acts := step.Actions(ctx, mode)
		if len(acts) == 0 {
			fmt.Fprintf(w, "   %s\n", color.Dim("(nothing to do)"))
			continue
		}
		for _, a := range acts {
			fmt.Fprintf(w, "   - %s\n", a.Describe())
			if c, ok := a.(actions.Commander); ok && c.CommandLine() != "" {
				fmt.Fprintf(w, "     %s\n", color.Dim("$ "+c.CommandLine()))
			}
		}
	}
}

func (r *Runner) record(target Target, step string, action actions.Action, outcome gate.Outcome, err error) {
	if r.Journal == nil {
		return
	}
	e := audit.Entry{
		Command: r.Command,
		Target:  string(target),
		Step:    step,
		Action:  action.Describe(),
		Outcome: outcome.String(),
	}
	if err != nil {
		e.Outcome = "failed"
		e.Error = err.Error()
	}
	if err := r.Journal.Log(e); err != nil {
		r.Logger.Warn("could not write audit entry", zap.Error(err))
	}
}

func (r *Runner) syncActions(_ context.Context, mode gate.Mode) []actions.Action {
	return []actions.Action{
		&actions.PackageAction{Manager: r.Config.Manager, Upgrade: true, NoConfirm: mode.NoConfirm},
	}
}

func (r *Runner) baseActions(_ context.Context, mode gate.Mode) []actions.Action {
	if len(r.Config.BasePackages) == 0 {
		return nil
	}
	return []actions.Action{
		&actions.PackageAction{Packages: r.Config.BasePackages, Manager: r.Config.Manager, NoConfirm: mode.NoConfirm},
	}
}

func (r *Runner) helperActions(_ context.Context, mode gate.Mode) []actions.Action {
	helper := r.Config.AURHelper
	if r.Present(helper.Name) {
		r.Logger.Debug("AUR helper already installed", zap.String("helper", helper.Name))
		return nil
	}
	return []actions.Action{
		&actions.AURBuildAction{Package: helper.Package, Repository: helper.Repository, NoConfirm: mode.NoConfirm},
	}
}

func (r *Runner) packageActions(target Target, mode gate.Mode) []actions.Action {
	pkgs := r.TargetPackages(target)
	if len(pkgs) == 0 {
		return nil
	}
	return []actions.Action{
		&actions.PackageAction{Packages: pkgs, Manager: r.Config.AURHelper.Name, NoConfirm: mode.NoConfirm},
	}
}

// TargetPackages merges the package groups for target, dropping duplicates.
func (r *Runner) TargetPackages(target Target) []string {
	var pkgs []string
	for _, group := range target.PackageGroups() {
		for _, p := range r.Config.Packages[group] {
			if !slices.Contains(pkgs, p) {
				pkgs = append(pkgs, p)
			}
		}
	}
	return pkgs
}

func (r *Runner) specialActions(ctx context.Context, _ gate.Mode) []actions.Action {
	var acts []actions.Action
	for _, s := range r.Config.Special {
		if r.installed(ctx, s) {
			r.Logger.Debug("already installed", zap.String("dependency", s.Name))
			continue
		}
		if s.Command != "" {
			acts = append(acts, &actions.RunAction{Label: "install " + s.Name, Command: s.Command})
		} else {
			acts = append(acts, &actions.ScriptAction{Script: s.Script, Via: s.Via, Args: s.Args})
		}
	}
	return acts
}

// installed reports whether s is on PATH or, failing that, whether its check
// command succeeds. A check that cannot be run counts as not installed.
func (r *Runner) installed(ctx context.Context, s config.Special) bool {
	if r.Present(s.Name) {
		return true
	}
	if s.Check == "" || r.Check == nil {
		return false
	}
	ok, err := r.Check(ctx, s.Check)
	if err != nil {
		r.Logger.Warn("check failed", zap.String("dependency", s.Name), zap.String("check", s.Check), zap.Error(err))
		return false
	}
	return ok
}

func (r *Runner) environmentActions(context.Context, gate.Mode) []actions.Action {
	acts := make([]actions.Action, 0, len(r.Config.Environment))
	for _, e := range r.Config.Environment {
		acts = append(acts, &actions.RunAction{Label: e.Name, Command: e.Command})
	}
	return acts
}

func (r *Runner) dotfileActions(context.Context, gate.Mode) []actions.Action {
	acts := make([]actions.Action, 0, len(r.Config.Dotfiles.Files))
	for _, f := range r.Config.Dotfiles.Files {
		acts = append(acts, &actions.FileAction{
			Source:      r.Config.Dotfiles.SourcePath(f),
			Destination: f.Destination,
			Link:        f.Link,
			Permissions: f.Permissions,
			Encrypted:   f.Encrypted,
			Key:         r.Key,
		})
	}
	return acts
}
