package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nexus-edge/field-logger/pkg/logging"
)

func TestDailyFileWriter_WriteCreatesTodayFile(t *testing.T) {
	dir := t.TempDir()
	w := logging.NewDailyFileWriter(dir)
	defer w.Close()

	line := []byte("first line\n")
	n, err := w.Write(line)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(line) {
		t.Errorf("Write() = %d, want %d", n, len(line))
	}

	path := filepath.Join(dir, time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if string(data) != string(line) {
		t.Errorf("file content = %q, want %q", data, line)
	}
}

func TestDailyFileWriter_RotateSameDayKeepsFile(t *testing.T) {
	dir := t.TempDir()
	w := logging.NewDailyFileWriter(dir)
	defer w.Close()

	if _, err := w.Write([]byte("before\n")); err != nil {
		t.Fatal(err)
	}
	if err := w.Rotate(); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}
	if _, err := w.Write([]byte("after\n")); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("directory has %d files after same-day rotate, want 1", len(entries))
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "before") || !strings.Contains(string(data), "after") {
		t.Errorf("file content = %q, want both lines", data)
	}
}

func TestDailyFileWriter_CleanupOld(t *testing.T) {
	dir := t.TempDir()
	w := logging.NewDailyFileWriter(dir)

	now := time.Now()
	// Two expired, two retained, two ignored by the name filter.
	names := []string{
		now.AddDate(0, 0, -40).Format("2006-01-02") + ".log", // expired
		now.AddDate(0, 0, -31).Format("2006-01-02") + ".log", // expired
		now.AddDate(0, 0, -5).Format("2006-01-02") + ".log",  // retained
		now.Format("2006-01-02") + ".log",
		"not-a-date.log",
		"notes.txt",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := w.CleanupOld(30)
	if err != nil {
		t.Fatalf("CleanupOld() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("CleanupOld() deleted %d files, want 2", deleted)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Errorf("directory has %d files after cleanup, want 4", len(entries))
	}
	for _, e := range entries {
		if e.Name() == names[0] || e.Name() == names[1] {
			t.Errorf("expired file %s survived cleanup", e.Name())
		}
	}
}

func TestDailyFileWriter_CleanupOldMissingDir(t *testing.T) {
	w := logging.NewDailyFileWriter(filepath.Join(t.TempDir(), "absent"))

	deleted, err := w.CleanupOld(30)
	if err != nil {
		t.Errorf("CleanupOld() error = %v, want nil for a missing directory", err)
	}
	if deleted != 0 {
		t.Errorf("CleanupOld() = %d, want 0", deleted)
	}
}
