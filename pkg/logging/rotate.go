package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// logDateFormat names daily log files YYYY-MM-DD.log.
const logDateFormat = "2006-01-02"

// DailyFileWriter is an io.Writer appending to one log file per calendar
// day. The active file only changes when Rotate is called, so rotation
// happens at cycle boundaries rather than mid-write.
type DailyFileWriter struct {
	dir  string
	mu   sync.Mutex
	file *os.File
	date string
	now  func() time.Time
}

// NewDailyFileWriter creates a writer for the given directory. The first
// file is opened lazily on first write.
func NewDailyFileWriter(dir string) *DailyFileWriter {
	return &DailyFileWriter{dir: dir, now: time.Now}
}

// Write appends to the current day's file, opening it if needed. Write
// errors are swallowed after the open succeeds: losing a mirror line must
// never fail the logging call that produced it.
func (w *DailyFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		if err := w.open(w.now()); err != nil {
			return len(p), nil
		}
	}
	w.file.Write(p)
	return len(p), nil
}

// Rotate switches to a new file when the calendar day has changed since the
// current file was opened. Called between poll cycles.
func (w *DailyFileWriter) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	today := w.now().Format(logDateFormat)
	if w.file != nil && w.date == today {
		return nil
	}
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}
	return w.open(w.now())
}

// open creates the directory and opens the day's file for append. Callers
// hold the mutex.
func (w *DailyFileWriter) open(t time.Time) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	date := t.Format(logDateFormat)
	f, err := os.OpenFile(filepath.Join(w.dir, date+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.date = date
	return nil
}

// Close flushes and closes the current file.
func (w *DailyFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// CleanupOld deletes .log files in the writer's directory older than
// retentionDays, matching only YYYY-MM-DD.log names. Returns the number of
// files deleted.
func (w *DailyFileWriter) CleanupOld(retentionDays int) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading log directory %s: %w", w.dir, err)
	}

	cutoff := w.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".log" {
			continue
		}
		fileDate, err := time.Parse(logDateFormat, name[:len(name)-len(".log")])
		if err != nil {
			continue
		}
		if fileDate.Before(cutoff) {
			if err := os.Remove(filepath.Join(w.dir, name)); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}
