package logging

import (
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// maxSizeMB is a safety valve; rotation is normally driven by the calendar.
const maxSizeMB = 100

// WeeklyWriter appends to a lumberjack-managed file and rolls it over at the
// first write after each Sunday midnight (local time). Old files beyond the
// backup count are pruned by lumberjack.
type WeeklyWriter struct {
	mu   sync.Mutex
	lj   *lumberjack.Logger
	next time.Time
	now  func() time.Time
}

// NewWeeklyWriter opens path for appending. An existing file is dated by its
// modification time, so a file left over from last week rolls on first write.
func NewWeeklyWriter(path string, backups int) *WeeklyWriter {
	w := &WeeklyWriter{
		lj: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: backups,
			LocalTime:  true,
		},
		now: time.Now,
	}
	start := w.now()
	if info, err := os.Stat(path); err == nil {
		start = info.ModTime()
	}
	w.next = NextRollover(start)
	return w
}

func (w *WeeklyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if now := w.now(); !now.Before(w.next) {
		if err := w.lj.Rotate(); err != nil {
			return 0, err
		}
		w.next = NextRollover(now)
	}
	return w.lj.Write(p)
}

// Sync is a no-op; lumberjack writes straight through to the file.
func (w *WeeklyWriter) Sync() error { return nil }

func (w *WeeklyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lj.Close()
}

// NextRollover returns the first Sunday midnight strictly after t, in t's
// location.
func NextRollover(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	days := (7 - int(t.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	return midnight.AddDate(0, 0, days)
}
