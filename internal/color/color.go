// Package color provides colour helpers for terminal output.
// Colour is decided by fatih/color, which already honours NO_COLOR and
// turns itself off when stdout is not a terminal; Init adds TERM=dumb.
package color

import (
	"os"

	"github.com/fatih/color"
)

var (
	bold       = color.New(color.Bold).SprintFunc()
	dim        = color.New(color.Faint).SprintFunc()
	green      = color.New(color.FgGreen).SprintFunc()
	yellow     = color.New(color.FgYellow).SprintFunc()
	cyan       = color.New(color.FgCyan).SprintFunc()
	boldRed    = color.New(color.Bold, color.FgRed).SprintFunc()
	boldYellow = color.New(color.Bold, color.FgYellow).SprintFunc()
)

// Init should be called once at program start.
func Init() {
	if os.Getenv("TERM") == "dumb" {
		color.NoColor = true
	}
}

// SetEnabled forces colour on or off regardless of terminal detection.
func SetEnabled(enabled bool) {
	color.NoColor = !enabled
}

// Enabled reports whether escape sequences are currently emitted.
func Enabled() bool {
	return !color.NoColor
}

func Bold(s string) string       { return bold(s) }
func Dim(s string) string        { return dim(s) }
func Green(s string) string      { return green(s) }
func Yellow(s string) string     { return yellow(s) }
func Cyan(s string) string       { return cyan(s) }
func BoldRed(s string) string    { return boldRed(s) }
func BoldYellow(s string) string { return boldYellow(s) }
