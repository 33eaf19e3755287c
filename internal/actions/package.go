package actions

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// PackageAction installs packages, or upgrades the whole system, through
// pacman or an AUR helper.
type PackageAction struct {
	Packages  []string
	Manager   string // "pacman", "yay" or "paru"
	Upgrade   bool   // full system upgrade; Packages is ignored
	NoConfirm bool   // forward --noconfirm to the package manager
}

func (a *PackageAction) Describe() string {
	if a.Upgrade {
		return fmt.Sprintf("upgrade system packages via %s", a.Manager)
	}
	return fmt.Sprintf("install %d package(s) via %s: %s", len(a.Packages), a.Manager, strings.Join(a.Packages, ", "))
}

func (a *PackageAction) CommandLine() string {
	args, err := a.args()
	if err != nil {
		return ""
	}
	return joinArgs(args)
}

func (a *PackageAction) Run(ctx context.Context, dryRun bool) error {
	args, err := a.args()
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Printf("    [dry-run] %s\n", joinArgs(args))
		return nil
	}
	return interactive(exec.CommandContext(ctx, args[0], args[1:]...)).Run()
}

func (a *PackageAction) args() ([]string, error) {
	if !a.Upgrade && len(a.Packages) == 0 {
		return nil, fmt.Errorf("no packages to install via %s", a.Manager)
	}
	var args []string
	var err error
	if a.Upgrade {
		args, err = upgradeArgs(a.Manager)
	} else {
		args, err = installArgs(a.Manager, a.Packages)
	}
	if err != nil {
		return nil, err
	}
	if a.NoConfirm {
		args = append(args, "--noconfirm")
	}
	return args, nil
}

// installArgs returns the command + arguments needed to install pkgs with the given manager.
// --needed keeps already installed packages from being reinstalled.
func installArgs(manager string, pkgs []string) ([]string, error) {
	var args []string
	switch manager {
	case "pacman":
		args = []string{"sudo", "pacman", "-S", "--needed"}
	case "yay", "paru":
		// AUR helpers escalate on their own and refuse to run as root.
		args = []string{manager, "-S", "--needed"}
	default:
		return nil, fmt.Errorf("unknown package manager: %q", manager)
	}
	return append(args, pkgs...), nil
}

// upgradeArgs returns the command + arguments that refresh the package
// databases and upgrade everything installed.
func upgradeArgs(manager string) ([]string, error) {
	switch manager {
	case "pacman":
		return []string{"sudo", "pacman", "-Syu"}, nil
	case "yay", "paru":
		return []string{manager, "-Syu"}, nil
	default:
		return nil, fmt.Errorf("unknown package manager: %q", manager)
	}
}
