package actions

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/filaco/dots/internal/ageutil"
	"github.com/filaco/dots/internal/color"
	"github.com/filaco/dots/internal/platform"
)

// FileAction installs one dotfile from the dotfiles tree onto the machine,
// by copy or by symlink.
//
// Encrypted files live in the tree with an ".age" suffix and are decrypted
// with Key on the way out; they cannot be linked. When Permissions is set
// (octal, e.g. "0600") the mode is enforced on the written file.
type FileAction struct {
	Source      string // path inside the dotfiles tree
	Destination string // directory or full file path (may contain ~ and $VARS)
	Link        bool
	Permissions string
	Encrypted   bool
	Key         *ageutil.Key
}

// ResolvedTarget returns the fully expanded destination file path.
// A destination with a trailing "/" or without a file extension is a
// directory and receives the source's base name.
func (a *FileAction) ResolvedTarget() string {
	expanded := platform.ExpandPath(a.Destination)
	if !strings.HasSuffix(a.Destination, "/") && filepath.Ext(filepath.Base(expanded)) != "" {
		return expanded
	}
	return filepath.Join(expanded, filepath.Base(ageutil.PlainPath(a.Source)))
}

func (a *FileAction) Describe() string {
	dest := a.ResolvedTarget()
	switch {
	case a.Link:
		return fmt.Sprintf("link   %s -> %s", a.Source, dest)
	case a.Encrypted:
		return fmt.Sprintf("copy   %s -> %s [encrypted]", ageutil.EncryptedPath(a.Source), dest)
	default:
		return fmt.Sprintf("copy   %s -> %s", a.Source, dest)
	}
}

func (a *FileAction) Run(ctx context.Context, dryRun bool) error {
	target := a.ResolvedTarget()
	if dryRun {
		fmt.Printf("    %s\n", color.Dim("[dry-run] "+a.Describe()))
		return nil
	}
	if a.Link && a.Encrypted {
		return fmt.Errorf("%s: encrypted files cannot be linked", a.Source)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	var err error
	switch {
	case a.Link:
		return createSymlink(a.Source, target)
	case a.Encrypted:
		err = a.decryptTo(target)
	default:
		err = copyFile(a.Source, target)
	}
	if err != nil {
		return err
	}
	return a.enforcePermissions(target)
}

func (a *FileAction) decryptTo(target string) error {
	if !a.Key.Configured() {
		return fmt.Errorf("%s: %w", a.Source, ageutil.ErrNoKey)
	}
	return a.Key.DecryptFile(ageutil.EncryptedPath(a.Source), target, 0o600)
}

func (a *FileAction) enforcePermissions(target string) error {
	if a.Permissions == "" {
		return nil
	}
	mode, err := parseMode(a.Permissions)
	if err != nil {
		return fmt.Errorf("invalid permissions %q: %w", a.Permissions, err)
	}
	if err := os.Chmod(target, mode); err != nil {
		return fmt.Errorf("chmod %s to %s: %w", target, a.Permissions, err)
	}
	return nil
}

func parseMode(s string) (os.FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	return os.FileMode(v), nil
}

func createSymlink(src, dst string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("resolve source path: %w", err)
	}
	if _, err := os.Lstat(dst); err == nil {
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("remove existing destination: %w", err)
		}
	}
	return os.Symlink(abs, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy contents: %w", err)
	}
	return out.Close()
}
