// Package config loads the dots configuration: package lists, the special
// dependency table, environment commands and dotfiles to install.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/filaco/dots/internal/platform"
)

// Managers that can install the package lists.
var Managers = []string{"pacman", "yay", "paru"}

// AURHelpers are the managers that can stand in as the AUR helper.
var AURHelpers = []string{"yay", "paru"}

// ScriptSources are the accepted values of Special.Via; empty means inferred
// from the script location.
var ScriptSources = []string{"", "local", "remote"}

// Config is the full configuration.
type Config struct {
	Prompt       string              `mapstructure:"prompt" yaml:"prompt"`
	Log          Log                 `mapstructure:"log" yaml:"log"`
	Manager      string              `mapstructure:"manager" yaml:"manager"`
	AURHelper    AURHelper           `mapstructure:"aur_helper" yaml:"aur_helper"`
	BasePackages []string            `mapstructure:"base_packages" yaml:"base_packages"`
	Packages     map[string][]string `mapstructure:"packages" yaml:"packages"`
	Special      []Special           `mapstructure:"special" yaml:"special"`
	Environment  []Command           `mapstructure:"environment" yaml:"environment"`
	Dotfiles     Dotfiles            `mapstructure:"dotfiles" yaml:"dotfiles"`
	Age          Age                 `mapstructure:"age" yaml:"age"`
}

// Log configures the rotating log file and the audit history.
type Log struct {
	File    string `mapstructure:"file" yaml:"file"`
	Backups int    `mapstructure:"backups" yaml:"backups"`
	History string `mapstructure:"history" yaml:"history"`
}

// Path returns the log file location, defaulting to the XDG state directory.
func (l Log) Path() string {
	if l.File != "" {
		return platform.ExpandPath(l.File)
	}
	return filepath.Join(xdg.StateHome, "dots", "dots.log")
}

// HistoryPath returns the audit journal location; empty means the audit
// package default.
func (l Log) HistoryPath() string {
	if l.History == "" {
		return ""
	}
	return platform.ExpandPath(l.History)
}

// AURHelper names the helper used for the bulk package list and where to
// bootstrap it from when it is missing.
type AURHelper struct {
	Name       string `mapstructure:"name" yaml:"name"`             // executable, e.g. yay
	Package    string `mapstructure:"package" yaml:"package"`       // AUR package, e.g. yay-bin
	Repository string `mapstructure:"repository" yaml:"repository"` // AUR git URL
}

// Special is one row of the special dependency table: an executable and how
// to install it when it is not on PATH. Exactly one of Command or Script is set.
// Check, when set, is a shell command that exits 0 if the dependency is
// already installed somewhere PATH does not reach (e.g. nvm).
type Special struct {
	Name    string   `mapstructure:"name" yaml:"name"`
	Check   string   `mapstructure:"check" yaml:"check,omitempty"`
	Command string   `mapstructure:"command" yaml:"command,omitempty"`
	Script  string   `mapstructure:"script" yaml:"script,omitempty"`
	Via     string   `mapstructure:"via" yaml:"via,omitempty"`
	Args    []string `mapstructure:"args" yaml:"args,omitempty"`
}

// Command is a named shell command run during environment setup.
type Command struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Command string `mapstructure:"command" yaml:"command"`
}

// Dotfiles lists the files copied from the dotfiles tree.
type Dotfiles struct {
	Source string    `mapstructure:"source" yaml:"source"`
	Files  []Dotfile `mapstructure:"files" yaml:"files"`
}

// Dotfile is one file to install. Source is relative to Dotfiles.Source.
type Dotfile struct {
	Source      string `mapstructure:"source" yaml:"source"`
	Destination string `mapstructure:"destination" yaml:"destination"`
	Link        bool   `mapstructure:"link" yaml:"link,omitempty"`
	Encrypted   bool   `mapstructure:"encrypted" yaml:"encrypted,omitempty"`
	Permissions string `mapstructure:"permissions" yaml:"permissions,omitempty"`
}

// Age holds the credential for encrypted dotfiles.
type Age struct {
	Identity   string `mapstructure:"identity" yaml:"identity"`
	Passphrase string `mapstructure:"passphrase" yaml:"passphrase"`
}

// SourcePath returns the absolute location of f inside the dotfiles tree.
func (d Dotfiles) SourcePath(f Dotfile) string {
	if filepath.IsAbs(f.Source) {
		return f.Source
	}
	return filepath.Join(platform.ExpandPath(d.Source), f.Source)
}

// Validate reports every problem in the configuration at once.
func (c Config) Validate() error {
	var errs []error
	if !slices.Contains(Managers, c.Manager) {
		errs = append(errs, fmt.Errorf("manager %q: must be one of %v", c.Manager, Managers))
	}
	if !slices.Contains(AURHelpers, c.AURHelper.Name) {
		errs = append(errs, fmt.Errorf("aur_helper.name %q: must be one of %v", c.AURHelper.Name, AURHelpers))
	}
	if c.AURHelper.Package == "" || c.AURHelper.Repository == "" {
		errs = append(errs, errors.New("aur_helper.package and aur_helper.repository are required"))
	}
	for i, s := range c.Special {
		switch {
		case s.Name == "":
			errs = append(errs, fmt.Errorf("special[%d]: name is required", i))
		case (s.Command == "") == (s.Script == ""):
			errs = append(errs, fmt.Errorf("special %q: set exactly one of command or script", s.Name))
		case !slices.Contains(ScriptSources, s.Via):
			errs = append(errs, fmt.Errorf("special %q: via must be local or remote", s.Name))
		case s.Via != "" && s.Script == "":
			errs = append(errs, fmt.Errorf("special %q: via only applies to script", s.Name))
		}
	}
	for i, e := range c.Environment {
		if e.Command == "" {
			errs = append(errs, fmt.Errorf("environment[%d]: command is required", i))
		}
	}
	for i, f := range c.Dotfiles.Files {
		if f.Source == "" || f.Destination == "" {
			errs = append(errs, fmt.Errorf("dotfiles.files[%d]: source and destination are required", i))
		}
		if f.Link && f.Encrypted {
			errs = append(errs, fmt.Errorf("dotfiles.files[%d]: encrypted files cannot be linked", i))
		}
	}
	return errors.Join(errs...)
}

// YAML renders c with secrets redacted.
func (c Config) YAML() ([]byte, error) {
	if c.Age.Passphrase != "" {
		c.Age.Passphrase = "<redacted>"
	}
	return yaml.Marshal(c)
}
