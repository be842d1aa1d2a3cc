package sink_test

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nexus-edge/field-logger/internal/domain"
	"github.com/nexus-edge/field-logger/internal/sink"
)

var testHeader = []string{"Datetime", "Unit", "alpha", "beta", "Status"}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return rows
}

func TestValidateHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		fields  []string
		wantErr error
	}{
		{
			name:    "matching width",
			header:  testHeader,
			fields:  []string{"alpha", "beta"},
			wantErr: nil,
		},
		{
			name:    "header too narrow",
			header:  []string{"Datetime", "Unit", "alpha", "Status"},
			fields:  []string{"alpha", "beta"},
			wantErr: domain.ErrHeaderMismatch,
		},
		{
			name:    "header too wide",
			header:  append([]string{"extra"}, testHeader...),
			fields:  []string{"alpha", "beta"},
			wantErr: domain.ErrHeaderMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sink.ValidateHeader(tt.header, tt.fields)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateHeader() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCSV_AppendCreatesFileWithHeader(t *testing.T) {
	base := t.TempDir()
	s := sink.NewCSV(base, "meters", testHeader, zerolog.Nop())

	ts := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	records := []domain.Record{
		{
			Timestamp: ts,
			UnitID:    1,
			Fields:    []domain.Field{{Name: "alpha", Value: 1.2345}, {Name: "beta", Value: 42}},
			Status:    domain.StatusOK,
		},
		{
			Timestamp: ts,
			UnitID:    2,
			Fields:    []domain.Field{{Name: "alpha"}, {Name: "beta"}},
			Status:    domain.StatusDeviceError,
		},
	}

	if err := s.Append(records); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	now := time.Now()
	path := filepath.Join(base, now.Format("2006-01"),
		now.Format("2006-01-02")+"_meters.csv")
	rows := readRows(t, path)

	if len(rows) != 3 {
		t.Fatalf("file has %d rows, want header + 2 records", len(rows))
	}
	for i, cell := range rows[0] {
		if cell != testHeader[i] {
			t.Errorf("header[%d] = %q, want %q", i, cell, testHeader[i])
		}
	}

	okRow := rows[1]
	if len(okRow) != len(testHeader) {
		t.Fatalf("OK row has %d cells, want %d", len(okRow), len(testHeader))
	}
	if okRow[0] != ts.Format(time.RFC3339) {
		t.Errorf("timestamp cell = %q, want %q", okRow[0], ts.Format(time.RFC3339))
	}
	if okRow[1] != "1" {
		t.Errorf("unit cell = %q, want \"1\"", okRow[1])
	}
	if okRow[2] != "1.2345" {
		t.Errorf("alpha cell = %q, want \"1.2345\"", okRow[2])
	}
	if okRow[3] != "42" {
		t.Errorf("beta cell = %q, want \"42\"", okRow[3])
	}
	if okRow[4] != "No error" {
		t.Errorf("status cell = %q, want \"No error\"", okRow[4])
	}

	errRow := rows[2]
	if len(errRow) != len(testHeader) {
		t.Fatalf("error row has %d cells, want %d", len(errRow), len(testHeader))
	}
	if errRow[2] != "" || errRow[3] != "" {
		t.Errorf("error row field cells = %q, %q, want empty", errRow[2], errRow[3])
	}
	if errRow[4] != "Error" {
		t.Errorf("status cell = %q, want \"Error\"", errRow[4])
	}
}

func TestCSV_AppendTwiceWritesHeaderOnce(t *testing.T) {
	base := t.TempDir()
	s := sink.NewCSV(base, "meters", testHeader, zerolog.Nop())

	rec := domain.Record{
		Timestamp: time.Now(),
		UnitID:    1,
		Fields:    []domain.Field{{Name: "alpha", Value: 1}, {Name: "beta", Value: 2}},
		Status:    domain.StatusOK,
	}

	if err := s.Append([]domain.Record{rec}); err != nil {
		t.Fatalf("first Append() error = %v", err)
	}
	if err := s.Append([]domain.Record{rec}); err != nil {
		t.Fatalf("second Append() error = %v", err)
	}

	now := time.Now()
	path := filepath.Join(base, now.Format("2006-01"),
		now.Format("2006-01-02")+"_meters.csv")
	rows := readRows(t, path)

	if len(rows) != 3 {
		t.Fatalf("file has %d rows, want 1 header + 2 records", len(rows))
	}
	headerCount := 0
	for _, row := range rows {
		if row[0] == "Datetime" {
			headerCount++
		}
	}
	if headerCount != 1 {
		t.Errorf("file contains %d header rows, want 1", headerCount)
	}
}

func TestCSV_AppendRejectsMisalignedRecord(t *testing.T) {
	base := t.TempDir()
	s := sink.NewCSV(base, "meters", testHeader, zerolog.Nop())

	rec := domain.Record{
		Timestamp: time.Now(),
		UnitID:    1,
		Fields:    []domain.Field{{Name: "alpha", Value: 1}}, // one field short
		Status:    domain.StatusOK,
	}

	err := s.Append([]domain.Record{rec})
	if !errors.Is(err, domain.ErrRowWidthMismatch) {
		t.Errorf("Append() error = %v, want %v", err, domain.ErrRowWidthMismatch)
	}
}

func TestCSV_AppendEmptyBatch(t *testing.T) {
	base := t.TempDir()
	s := sink.NewCSV(base, "meters", testHeader, zerolog.Nop())

	if err := s.Append(nil); err != nil {
		t.Fatalf("Append(nil) error = %v", err)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("empty batch created %d entries, want none", len(entries))
	}
}
