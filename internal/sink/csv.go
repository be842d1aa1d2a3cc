// Package sink persists decoded records as daily CSV files. It owns path
// construction and header creation; the polling engine only ever appends.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nexus-edge/field-logger/internal/domain"
	"github.com/rs/zerolog"
)

// metadataColumns is the number of header columns not produced by the
// driver: timestamp, unit id and the trailing error column.
const metadataColumns = 3

// Status column labels, kept compatible with the historical file format.
const (
	labelNoError = "No error"
	labelError   = "Error"
)

// CSV appends records to a daily file <base>/<YYYY-MM>/<YYYY-MM-DD>_<suffix>.csv,
// writing the declared header when a file is first created. One sink serves
// one device type; the header is fixed for the sink's lifetime.
type CSV struct {
	baseFolder string
	fileSuffix string
	header     []string
	logger     zerolog.Logger
	now        func() time.Time
}

// NewCSV creates a CSV sink with the declared header.
func NewCSV(baseFolder, fileSuffix string, header []string, logger zerolog.Logger) *CSV {
	return &CSV{
		baseFolder: baseFolder,
		fileSuffix: fileSuffix,
		header:     header,
		logger:     logger.With().Str("component", "csv-sink").Logger(),
		now:        time.Now,
	}
}

// ValidateHeader checks that the declared header covers the driver's field
// list exactly, metadata columns included. Run at startup so a header drift
// is a fatal configuration error, not a malformed file.
func ValidateHeader(header []string, fieldNames []string) error {
	if len(header) != len(fieldNames)+metadataColumns {
		return fmt.Errorf("%w: header has %d columns, driver emits %d fields (+%d metadata columns)",
			domain.ErrHeaderMismatch, len(header), len(fieldNames), metadataColumns)
	}
	return nil
}

// Append writes one row per record to today's file, creating path and
// header as needed.
func (s *CSV) Append(records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	path, err := s.ensureFile(s.now())
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, rec := range records {
		row := s.row(rec)
		if len(row) != len(s.header) {
			return fmt.Errorf("%w: row has %d cells, header has %d columns",
				domain.ErrRowWidthMismatch, len(row), len(s.header))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row to %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

// row renders one record with full column alignment: nil fields become
// empty cells, never dropped cells.
func (s *CSV) row(rec domain.Record) []string {
	row := make([]string, 0, len(rec.Fields)+metadataColumns)
	row = append(row, rec.Timestamp.Format(time.RFC3339))
	row = append(row, strconv.Itoa(int(rec.UnitID)))
	for _, field := range rec.Fields {
		row = append(row, formatValue(field.Value))
	}
	if rec.OK() {
		row = append(row, labelNoError)
	} else {
		row = append(row, labelError)
	}
	return row
}

// ensureFile returns today's file path, creating the month directory and
// writing the header if the file does not exist yet.
func (s *CSV) ensureFile(t time.Time) (string, error) {
	dir := filepath.Join(s.baseFolder, t.Format("2006-01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", t.Format("2006-01-02"), s.fileSuffix))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return path, nil
		}
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(s.header); err != nil {
		return "", fmt.Errorf("writing header to %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	s.logger.Info().Str("path", path).Msg("Created output file")
	return path, nil
}

// formatValue renders a field value as a CSV cell. nil renders empty so
// error rows keep their column alignment.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	default:
		return fmt.Sprint(val)
	}
}
