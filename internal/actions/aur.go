package actions

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// AURBuildAction bootstraps a package straight from its AUR git repository
// with makepkg. It is how the AUR helper itself gets installed, since no
// helper exists yet to do it.
type AURBuildAction struct {
	Package    string
	Repository string // e.g. https://aur.archlinux.org/yay-bin.git
	NoConfirm  bool
}

func (a *AURBuildAction) Describe() string {
	return fmt.Sprintf("build and install %s from %s", a.Package, a.Repository)
}

func (a *AURBuildAction) CommandLine() string {
	return fmt.Sprintf("git clone --depth 1 %s && makepkg %s", a.Repository, joinArgs(a.makepkgArgs()))
}

func (a *AURBuildAction) Run(ctx context.Context, dryRun bool) error {
	if dryRun {
		fmt.Printf("    [dry-run] %s\n", a.CommandLine())
		return nil
	}

	work, err := os.MkdirTemp("", "dots-aur-*")
	if err != nil {
		return fmt.Errorf("create build directory: %w", err)
	}
	defer os.RemoveAll(work)

	src := filepath.Join(work, a.Package)
	clone := exec.CommandContext(ctx, "git", "clone", "--depth", "1", a.Repository, src)
	if err := interactive(clone).Run(); err != nil {
		return fmt.Errorf("clone %s: %w", a.Repository, err)
	}

	build := exec.CommandContext(ctx, "makepkg", a.makepkgArgs()...)
	build.Dir = src
	if err := interactive(build).Run(); err != nil {
		return fmt.Errorf("makepkg %s: %w", a.Package, err)
	}
	return nil
}

func (a *AURBuildAction) makepkgArgs() []string {
	args := []string{"-si"}
	if a.NoConfirm {
		args = append(args, "--noconfirm")
	}
	return args
}
