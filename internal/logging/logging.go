// Package logging builds the run logger: human-readable lines on stdout and
// the same lines in a log file that rolls over weekly.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/filaco/dots/internal/color"
)

const timeLayout = "2006-01-02 15:04:05"

// Options controls New.
type Options struct {
	Verbosity int       // 0 = info, 1+ = debug
	File      string    // log file; empty disables file logging
	Backups   int       // rotated files to keep
	Stdout    io.Writer // defaults to os.Stdout
}

// New returns the logger and a function that flushes and closes the log file.
func New(opts Options) (*zap.Logger, func() error, error) {
	level := zapcore.InfoLevel
	if opts.Verbosity > 0 {
		level = zapcore.DebugLevel
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	consoleEncoding := encoderConfig()
	if color.Enabled() {
		consoleEncoding.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoding), zapcore.AddSync(stdout), level),
	}

	closeFile := func() error { return nil }
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		w := NewWeeklyWriter(opts.File, opts.Backups)
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), w, level))
		closeFile = w.Close
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	closer := func() error {
		_ = logger.Sync()
		return closeFile()
	}
	return logger, closer, nil
}

// encoderConfig lays lines out as "time LEVEL file:line message fields".
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		CallerKey:        "caller",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}
