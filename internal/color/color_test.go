package color

import (
	"strings"
	"testing"
)

func TestColorDisabled(t *testing.T) {
	SetEnabled(false)
	if got := Bold("hello"); got != "hello" {
		t.Errorf("Bold() with colour off = %q, want %q", got, "hello")
	}
	if got := BoldRed("test"); got != "test" {
		t.Errorf("BoldRed() with colour off = %q", got)
	}
	if got := Dim("dim"); got != "dim" {
		t.Errorf("Dim() with colour off = %q", got)
	}
	if Enabled() {
		t.Error("Enabled() should be false")
	}
}

func TestColorEnabled(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	tests := []struct {
		name string
		fn   func(string) string
		code string
	}{
		{"Bold", Bold, "\x1b[1m"},
		{"Dim", Dim, "\x1b[2m"},
		{"Green", Green, "\x1b[32m"},
		{"Yellow", Yellow, "\x1b[33m"},
		{"Cyan", Cyan, "\x1b[36m"},
		{"BoldRed", BoldRed, "\x1b[1;31m"},
		{"BoldYellow", BoldYellow, "\x1b[1;33m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn("x")
			if !strings.HasPrefix(got, tt.code) {
				t.Errorf("%s(x) = %q, want prefix %q", tt.name, got, tt.code)
			}
			if !strings.HasSuffix(got, "x\x1b[0m") {
				t.Errorf("%s(x) = %q, want reset suffix", tt.name, got)
			}
		})
	}
}

func TestInitDumbTerminal(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)
	t.Setenv("TERM", "dumb")
	Init()
	if Enabled() {
		t.Error("Init() should disable colour for TERM=dumb")
	}
}
