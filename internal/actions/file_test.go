package actions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"

	"github.com/filaco/dots/internal/ageutil"
)

func TestFileActionResolvedTarget(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		destination string
		want        string
	}{
		{"dir destination", "zsh/.zshrc", "/home/user/", "/home/user/.zshrc"},
		{"file destination", "wezterm/wezterm.lua", "/home/user/.wezterm.lua", "/home/user/.wezterm.lua"},
		{"dir no trailing slash", "vim/.vimrc", "/home/user", "/home/user/.vimrc"},
		{"encrypted source", "secrets/env.age", "/home/user/.config/", "/home/user/.config/env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &FileAction{Source: tt.source, Destination: tt.destination}
			if got := a.ResolvedTarget(); got != tt.want {
				t.Errorf("ResolvedTarget() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileActionDescribe(t *testing.T) {
	tests := []struct {
		name     string
		action   FileAction
		contains string
	}{
		{"copy", FileAction{Source: "a", Destination: "/tmp/"}, "copy"},
		{"link", FileAction{Source: "a", Destination: "/tmp/", Link: true}, "link"},
		{"encrypted", FileAction{Source: "a", Destination: "/tmp/", Encrypted: true}, "a.age -> /tmp/a [encrypted]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.action.Describe(); !strings.Contains(got, tt.contains) {
				t.Errorf("Describe() = %q, want it to contain %q", got, tt.contains)
			}
		})
	}
}

func TestFileActionCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tree", ".zshrc")
	os.MkdirAll(filepath.Dir(src), 0o755)
	os.WriteFile(src, []byte("export EDITOR=nvim\n"), 0o644)

	destDir := filepath.Join(dir, "home", "nested") + "/"
	a := &FileAction{Source: src, Destination: destDir}
	if err := a.Run(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(destDir, ".zshrc"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "export EDITOR=nvim\n" {
		t.Errorf("copied content = %q", data)
	}
}

func TestFileActionCopyOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.conf")
	dst := filepath.Join(dir, "dst.conf")
	os.WriteFile(src, []byte("new"), 0o644)
	os.WriteFile(dst, []byte("old contents that are longer"), 0o644)

	a := &FileAction{Source: src, Destination: dst}
	if err := a.Run(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "new" {
		t.Errorf("content = %q, want %q", data, "new")
	}
}

func TestFileActionPermissions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.conf")
	dst := filepath.Join(dir, "out", "dst.conf")
	os.WriteFile(src, []byte("x"), 0o644)

	a := &FileAction{Source: src, Destination: dst, Permissions: "0600"}
	if err := a.Run(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 0600", perm)
	}
}

func TestFileActionInvalidPermissions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.conf")
	os.WriteFile(src, []byte("x"), 0o644)

	a := &FileAction{Source: src, Destination: filepath.Join(dir, "dst.conf"), Permissions: "rwx"}
	if err := a.Run(context.Background(), false); err == nil {
		t.Error("expected error for invalid permissions")
	}
}

func TestFileActionLink(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "init.lua")
	dst := filepath.Join(dir, "config", "nvim", "init.lua")
	os.WriteFile(src, []byte("-- nvim"), 0o644)
	os.MkdirAll(filepath.Dir(dst), 0o755)
	os.WriteFile(dst, []byte("stale"), 0o644)

	a := &FileAction{Source: src, Destination: dst, Link: true}
	if err := a.Run(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	got, err := os.Readlink(dst)
	if err != nil {
		t.Fatal(err)
	}
	if got != src {
		t.Errorf("link target = %q, want %q", got, src)
	}
}

func TestFileActionEncrypted(t *testing.T) {
	dir := t.TempDir()
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}
	keyFile := filepath.Join(dir, "key.txt")
	os.WriteFile(keyFile, []byte(identity.String()+"\n"), 0o600)
	key := &ageutil.Key{IdentityFile: keyFile}

	plain := filepath.Join(dir, "plain")
	os.WriteFile(plain, []byte("TOKEN=s3cret"), 0o644)
	src := filepath.Join(dir, "tree", "env")
	os.MkdirAll(filepath.Dir(src), 0o755)
	if err := key.EncryptFile(plain, ageutil.EncryptedPath(src)); err != nil {
		t.Fatal(err)
	}

	destDir := filepath.Join(dir, "home") + "/"
	a := &FileAction{Source: src, Destination: destDir, Encrypted: true, Key: key}
	if err := a.Run(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(destDir, "env"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "TOKEN=s3cret" {
		t.Errorf("decrypted = %q", data)
	}
}

func TestFileActionEncryptedWithoutKey(t *testing.T) {
	dir := t.TempDir()
	a := &FileAction{Source: filepath.Join(dir, "env"), Destination: dir + "/out/", Encrypted: true}
	err := a.Run(context.Background(), false)
	if !errors.Is(err, ageutil.ErrNoKey) {
		t.Errorf("Run() error = %v, want ErrNoKey", err)
	}
}

func TestFileActionEncryptedLinkRejected(t *testing.T) {
	a := &FileAction{Source: "env", Destination: t.TempDir() + "/", Encrypted: true, Link: true}
	if err := a.Run(context.Background(), false); err == nil {
		t.Error("expected error linking an encrypted file")
	}
}

func TestFileActionDryRun(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "never", "written.conf")
	a := &FileAction{Source: filepath.Join(dir, "missing.conf"), Destination: dst}
	if err := a.Run(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("dry run should not write the destination")
	}
}

func TestFileActionMissingSource(t *testing.T) {
	dir := t.TempDir()
	a := &FileAction{Source: filepath.Join(dir, "missing.conf"), Destination: dir + "/out/"}
	if err := a.Run(context.Background(), false); err == nil {
		t.Error("expected error for missing source")
	}
}
