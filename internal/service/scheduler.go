package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/nexus-edge/field-logger/internal/domain"
	"github.com/nexus-edge/field-logger/internal/metrics"
	"github.com/rs/zerolog"
)

// RecordSink receives one cycle's records for persistence. The sink owns
// path construction and header creation; the scheduler only appends.
type RecordSink interface {
	Append(records []domain.Record) error
}

// Housekeeper runs between-cycle maintenance: log rotation, retention
// cleanup, disk usage reporting. Failures are logged, never fatal.
type Housekeeper interface {
	Housekeep(ctx context.Context)
}

// Scheduler drives poll cycles at a fixed interval until cancelled. It is
// the exclusive owner of the transport connection: on exit, hard failure or
// cancellation, the transport is closed exactly once.
type Scheduler struct {
	cycle       *Cycle
	sink        RecordSink
	mirror      RecordSink // optional secondary sink, may be nil
	transport   io.Closer
	interval    time.Duration
	housekeeper Housekeeper // may be nil
	logger      zerolog.Logger
	metrics     *metrics.Registry
}

// SchedulerConfig wires a scheduler.
type SchedulerConfig struct {
	Cycle       *Cycle
	Sink        RecordSink
	Mirror      RecordSink
	Transport   io.Closer
	Interval    time.Duration
	Housekeeper Housekeeper
}

// NewScheduler creates a scheduler.
func NewScheduler(config SchedulerConfig, logger zerolog.Logger, metricsReg *metrics.Registry) *Scheduler {
	return &Scheduler{
		cycle:       config.Cycle,
		sink:        config.Sink,
		mirror:      config.Mirror,
		transport:   config.Transport,
		interval:    config.Interval,
		housekeeper: config.Housekeeper,
		logger:      logger.With().Str("component", "poll-scheduler").Logger(),
		metrics:     metricsReg,
	}
}

// Run loops until the context is cancelled or a cycle escalates a hard
// failure. Returns nil on operator-requested stop, the escalated error
// otherwise. The transport is closed before return in either case.
func (s *Scheduler) Run(ctx context.Context) error {
	defer func() {
		if err := s.transport.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing transport")
		}
	}()

	s.logger.Info().
		Dur("interval", s.interval).
		Msg("Starting continuous logging")

	for {
		if s.housekeeper != nil {
			s.housekeeper.Housekeep(ctx)
		}

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Stop requested, closing down")
			return nil
		case <-time.After(s.interval):
		}

		if err := s.runOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.logger.Info().Msg("Stop requested, closing down")
				return nil
			}
			s.logger.Error().Err(err).Msg("Cycle aborted, terminating for supervisor restart")
			return err
		}
	}
}

// runOnce executes one poll cycle and hands its records to the sinks.
func (s *Scheduler) runOnce(ctx context.Context) error {
	start := time.Now()

	records, err := s.cycle.Run(ctx)

	// Persist whatever the cycle produced, even when it aborted partway:
	// rows already decoded are not lost to an escalation.
	if len(records) > 0 {
		if sinkErr := s.sink.Append(records); sinkErr != nil {
			s.logger.Error().Err(sinkErr).Int("records", len(records)).Msg("Failed to append records")
		} else if s.metrics != nil {
			s.metrics.RecordRowsWritten(len(records))
		}

		if s.mirror != nil {
			if pubErr := s.mirror.Append(records); pubErr != nil {
				s.logger.Warn().Err(pubErr).Msg("Failed to mirror records")
			}
		}
	}

	if err != nil {
		return err
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordCycle(duration.Seconds())
	}
	s.logger.Debug().
		Int("records", len(records)).
		Dur("duration", duration).
		Msg("Poll cycle completed")

	return nil
}
