// Package audit keeps an append-only JSON-lines history of every gated action.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Entry records a single gate outcome.
type Entry struct {
	Time    time.Time `json:"time"`
	Command string    `json:"command"` // "install"
	Target  string    `json:"target"`
	Step    string    `json:"step"`
	Action  string    `json:"action"`
	Outcome string    `json:"outcome"` // "executed" | "skipped" | "aborted" | "failed"
	Error   string    `json:"error,omitempty"`
}

// Journal appends entries to a file.
type Journal struct {
	Path string
}

// DefaultPath is $XDG_DATA_HOME/dots/history.log.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "dots", "history.log")
}

// Open returns a journal at path, or at DefaultPath when path is empty.
func Open(path string) *Journal {
	if path == "" {
		path = DefaultPath()
	}
	return &Journal{Path: path}
}

// Log appends e, stamping it with the current time if unset.
func (j *Journal) Log(e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	if err := os.MkdirAll(filepath.Dir(j.Path), 0o755); err != nil {
		return fmt.Errorf("create audit directory: %w", err)
	}
	f, err := os.OpenFile(j.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Read returns the last limit entries (all if limit <= 0). A missing log is
// an empty history.
func (j *Journal) Read(limit int) ([]Entry, error) {
	f, err := os.Open(j.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue // skip malformed lines
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}
