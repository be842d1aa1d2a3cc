// Package logging provides structured logging functionality, including the
// daily log-file mirror that replaces ad hoc stdout redirection.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string
	Format  string // "json" or "console"
	LogDir  string // directory for daily log files; empty disables the file mirror
	NoColor bool
}

// DefaultLogConfig returns default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "console",
	}
}

// New creates a structured logger writing to stdout and, when a log
// directory is configured, mirroring every line into a daily log file.
// The returned writer is nil when no directory is configured.
func New(serviceName, version string, config LogConfig) (zerolog.Logger, *DailyFileWriter) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond

	var console io.Writer = os.Stdout
	if config.Format == "console" || config.Format == "text" {
		console = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			NoColor:    config.NoColor,
		}
	}

	var fileWriter *DailyFileWriter
	output := console
	if config.LogDir != "" {
		fileWriter = NewDailyFileWriter(config.LogDir)
		output = zerolog.MultiLevelWriter(console, fileWriter)
	}

	logger := zerolog.New(output).
		Level(parseLogLevel(config.Level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", version).
		Logger()

	return logger, fileWriter
}

// parseLogLevel converts a string log level to zerolog.Level.
func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithDeviceContext adds device context to the logger.
func WithDeviceContext(logger zerolog.Logger, deviceType string, unitID uint8) zerolog.Logger {
	return logger.With().
		Str("device_type", deviceType).
		Uint8("unit_id", unitID).
		Logger()
}
