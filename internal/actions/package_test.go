package actions

import (
	"context"
	"slices"
	"testing"
)

func TestPackageActionDescribe(t *testing.T) {
	a := &PackageAction{Packages: []string{"neovim", "git"}, Manager: "pacman"}
	want := "install 2 package(s) via pacman: neovim, git"
	if got := a.Describe(); got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}

	up := &PackageAction{Manager: "pacman", Upgrade: true}
	if got := up.Describe(); got != "upgrade system packages via pacman" {
		t.Errorf("Describe() = %q", got)
	}
}

func TestPackageActionCommandLine(t *testing.T) {
	tests := []struct {
		name   string
		action PackageAction
		want   string
	}{
		{"pacman install", PackageAction{Packages: []string{"git"}, Manager: "pacman"}, "sudo pacman -S --needed git"},
		{"pacman upgrade", PackageAction{Manager: "pacman", Upgrade: true}, "sudo pacman -Syu"},
		{"yay install", PackageAction{Packages: []string{"a", "b"}, Manager: "yay"}, "yay -S --needed a b"},
		{"paru upgrade noconfirm", PackageAction{Manager: "paru", Upgrade: true, NoConfirm: true}, "paru -Syu --noconfirm"},
		{"unknown manager", PackageAction{Packages: []string{"git"}, Manager: "apt"}, ""},
		{"nothing to install", PackageAction{Manager: "pacman"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.action.CommandLine(); got != tt.want {
				t.Errorf("CommandLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstallArgs(t *testing.T) {
	tests := []struct {
		manager string
		first   string
		wantErr bool
	}{
		{"pacman", "sudo", false},
		{"yay", "yay", false},
		{"paru", "paru", false},
		{"brew", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.manager, func(t *testing.T) {
			args, err := installArgs(tt.manager, []string{"git"})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if args[0] != tt.first {
				t.Errorf("first arg = %q, want %q", args[0], tt.first)
			}
			if !slices.Contains(args, "--needed") {
				t.Errorf("args %v missing --needed", args)
			}
			if args[len(args)-1] != "git" {
				t.Errorf("last arg = %q, want git", args[len(args)-1])
			}
		})
	}
}

func TestPackageActionDryRun(t *testing.T) {
	a := &PackageAction{Packages: []string{"git"}, Manager: "pacman"}
	if err := a.Run(context.Background(), true); err != nil {
		t.Errorf("dry run error: %v", err)
	}
}

func TestPackageActionUnknownManager(t *testing.T) {
	a := &PackageAction{Packages: []string{"git"}, Manager: "brew"}
	if err := a.Run(context.Background(), true); err == nil {
		t.Error("expected error for unknown manager")
	}
}
