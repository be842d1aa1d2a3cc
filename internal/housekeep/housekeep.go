// Package housekeep runs between-cycle maintenance for the logger process:
// daily log-file rotation, retention cleanup and disk usage reporting.
package housekeep

import (
	"context"
	"syscall"
	"time"

	"github.com/nexus-edge/field-logger/pkg/logging"
	"github.com/rs/zerolog"
)

// Runner performs the maintenance work once per poll cycle. All failures
// are logged and swallowed: housekeeping must never stall the cadence.
type Runner struct {
	logWriter     *logging.DailyFileWriter // may be nil
	retentionDays int
	diskPaths     []string
	logger        zerolog.Logger
	lastCleanup   string
	now           func() time.Time
}

// New creates a housekeeping runner.
func New(logWriter *logging.DailyFileWriter, retentionDays int, diskPaths []string, logger zerolog.Logger) *Runner {
	return &Runner{
		logWriter:     logWriter,
		retentionDays: retentionDays,
		diskPaths:     diskPaths,
		logger:        logger.With().Str("component", "housekeeping").Logger(),
		now:           time.Now,
	}
}

// Housekeep rotates the log file on day change, prunes expired log files
// once per day, and reports disk usage for the configured volumes.
func (r *Runner) Housekeep(ctx context.Context) {
	if r.logWriter != nil {
		if err := r.logWriter.Rotate(); err != nil {
			r.logger.Warn().Err(err).Msg("Log rotation failed")
		}

		today := r.now().Format("2006-01-02")
		if r.lastCleanup != today && r.retentionDays > 0 {
			deleted, err := r.logWriter.CleanupOld(r.retentionDays)
			if err != nil {
				r.logger.Warn().Err(err).Msg("Log cleanup failed")
			} else if deleted > 0 {
				r.logger.Info().Int("deleted", deleted).Int("retention_days", r.retentionDays).Msg("Deleted expired log files")
			}
			r.lastCleanup = today
		}
	}

	for _, path := range r.diskPaths {
		r.reportDiskUsage(path)
	}
}

// reportDiskUsage logs total/used/free space for one volume.
func (r *Runner) reportDiskUsage(path string) {
	var fs syscall.Statfs_t
	if err := syscall.Statfs(path, &fs); err != nil {
		r.logger.Warn().Err(err).Str("path", path).Msg("Disk usage check failed")
		return
	}

	total := fs.Blocks * uint64(fs.Bsize)
	free := fs.Bavail * uint64(fs.Bsize)
	used := total - free
	var usedPct float64
	if total > 0 {
		usedPct = float64(used) / float64(total) * 100
	}

	r.logger.Debug().
		Str("path", path).
		Uint64("total_bytes", total).
		Uint64("used_bytes", used).
		Uint64("free_bytes", free).
		Float64("used_pct", usedPct).
		Msg("Disk usage")
}
