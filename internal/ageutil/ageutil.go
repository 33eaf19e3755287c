// Package ageutil decrypts (and encrypts) dotfiles stored as age files.
package ageutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
)

// Ext is the suffix carried by encrypted dotfiles in the source tree.
const Ext = ".age"

// ErrNoKey is returned when neither an identity file nor a passphrase is set.
var ErrNoKey = errors.New("no age key configured; set age.identity or age.passphrase (DOTS_AGE_PASSPHRASE)")

// Key holds the credential needed to encrypt and decrypt age files.
// A passphrase wins over an identity file when both are set.
type Key struct {
	IdentityFile string
	Passphrase   string
}

// Configured reports whether k carries any credential.
func (k *Key) Configured() bool {
	return k != nil && (k.IdentityFile != "" || k.Passphrase != "")
}

// Decrypt streams the plaintext of src into dst.
func (k *Key) Decrypt(dst io.Writer, src io.Reader) error {
	identities, err := k.identities()
	if err != nil {
		return err
	}
	r, err := age.Decrypt(src, identities...)
	if err != nil {
		return fmt.Errorf("age decrypt: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		return fmt.Errorf("read plaintext: %w", err)
	}
	return nil
}

// Encrypt streams src into dst as an age file.
func (k *Key) Encrypt(dst io.Writer, src io.Reader) error {
	recipients, err := k.recipients()
	if err != nil {
		return err
	}
	w, err := age.Encrypt(dst, recipients...)
	if err != nil {
		return fmt.Errorf("age encrypt: %w", err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("write ciphertext: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalise ciphertext: %w", err)
	}
	return nil
}

// DecryptFile decrypts src into dst, creating dst with perm.
func (k *Key) DecryptFile(src, dst string, perm os.FileMode) error {
	return k.transformFile(src, dst, perm, k.Decrypt)
}

// EncryptFile encrypts src into dst. The result is always 0600.
func (k *Key) EncryptFile(src, dst string) error {
	return k.transformFile(src, dst, 0o600, k.Encrypt)
}

func (k *Key) transformFile(src, dst string, perm os.FileMode, fn func(io.Writer, io.Reader) error) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if err := fn(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func (k *Key) recipients() ([]age.Recipient, error) {
	if k.Passphrase != "" {
		r, err := age.NewScryptRecipient(k.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("create scrypt recipient: %w", err)
		}
		return []age.Recipient{r}, nil
	}

	identities, err := k.parseIdentityFile()
	if err != nil {
		return nil, err
	}
	var recipients []age.Recipient
	for _, id := range identities {
		if x, ok := id.(*age.X25519Identity); ok {
			recipients = append(recipients, x.Recipient())
		}
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no X25519 identities found in %s", k.IdentityFile)
	}
	return recipients, nil
}

func (k *Key) identities() ([]age.Identity, error) {
	if k.Passphrase != "" {
		id, err := age.NewScryptIdentity(k.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("create scrypt identity: %w", err)
		}
		return []age.Identity{id}, nil
	}
	return k.parseIdentityFile()
}

func (k *Key) parseIdentityFile() ([]age.Identity, error) {
	if k.IdentityFile == "" {
		return nil, ErrNoKey
	}
	f, err := os.Open(k.IdentityFile)
	if err != nil {
		return nil, fmt.Errorf("open identity file: %w", err)
	}
	defer f.Close()

	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parse identities: %w", err)
	}
	return identities, nil
}

// EncryptedPath returns the source-tree path of an encrypted dotfile,
// appending Ext unless it is already there.
func EncryptedPath(src string) string {
	if strings.HasSuffix(src, Ext) {
		return src
	}
	return src + Ext
}

// PlainPath strips Ext from path.
func PlainPath(path string) string {
	return strings.TrimSuffix(path, Ext)
}
