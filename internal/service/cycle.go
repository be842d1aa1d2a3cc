package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexus-edge/field-logger/internal/domain"
	"github.com/nexus-edge/field-logger/internal/driver"
	"github.com/nexus-edge/field-logger/internal/metrics"
	"github.com/rs/zerolog"
)

// BlockReader is the transport read contract consumed by the poll cycle.
type BlockReader interface {
	ReadBlock(ctx context.Context, address, count uint16, unitID uint8) ([]uint16, error)
}

// Cycle iterates the configured unit id range once, producing exactly one
// record per unit in range order. Reads are strictly sequential: one request
// in flight at any time.
type Cycle struct {
	descriptor domain.DeviceDescriptor
	drv        domain.Driver
	reader     BlockReader
	retry      RetryPolicy
	logger     zerolog.Logger
	metrics    *metrics.Registry
	pacing     time.Duration
}

// NewCycle builds a poll cycle for one descriptor/driver pair.
func NewCycle(
	descriptor domain.DeviceDescriptor,
	drv domain.Driver,
	reader BlockReader,
	retry RetryPolicy,
	logger zerolog.Logger,
	metricsReg *metrics.Registry,
) *Cycle {
	c := &Cycle{
		descriptor: descriptor,
		drv:        drv,
		reader:     reader,
		retry:      retry,
		logger:     logger.With().Str("component", "poll-cycle").Str("device_type", drv.TypeName()).Logger(),
		metrics:    metricsReg,
	}
	if pacer, ok := drv.(domain.Pacer); ok {
		c.pacing = pacer.ReadPacing()
	}
	return c
}

// Run visits every unit id in ascending range order and returns one record
// per unit. Soft failures become device-error records; a hard-fail driver's
// retry exhaustion aborts the cycle and is returned to the scheduler. A
// cancelled context stops between reads, never mid-read.
func (c *Cycle) Run(ctx context.Context) ([]domain.Record, error) {
	records := make([]domain.Record, 0, c.descriptor.UnitCount())

	for idx, unitID := range c.descriptor.UnitIDs() {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		if idx > 0 && c.pacing > 0 {
			select {
			case <-ctx.Done():
				return records, ctx.Err()
			case <-time.After(c.pacing):
			}
		}

		rec, err := c.pollUnit(ctx, idx, unitID)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// pollUnit resolves one unit to exactly one record, or to a fatal error
// when the driver's escalation policy is hard-fail.
func (c *Cycle) pollUnit(ctx context.Context, unitIndex int, unitID uint8) (domain.Record, error) {
	address := c.descriptor.StartAddress
	if ba, ok := c.drv.(domain.BlockAddresser); ok {
		address = ba.BlockAddress(c.descriptor.StartAddress, unitIndex)
	}

	logger := c.logger.With().Uint8("unit_id", unitID).Uint16("address", address).Logger()
	logger.Debug().Msg("Reading register block")

	block, err := c.retry.Do(ctx, logger, func() ([]uint16, error) {
		if c.metrics != nil {
			c.metrics.RecordReadAttempt()
		}
		return c.reader.ReadBlock(ctx, address, c.descriptor.RegisterCount, unitID)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.Record{}, err
		}

		if c.metrics != nil {
			c.metrics.RecordUnitRead(string(domain.StatusDeviceError))
		}

		if c.drv.Escalation() == domain.EscalationHardFail {
			logger.Error().Err(err).Msg("Retries exhausted on shared link, escalating")
			return domain.Record{}, fmt.Errorf("unit %d: %w", unitID, err)
		}

		logger.Warn().Err(err).Msg("Retries exhausted, recording device-error row")
		return c.drv.ErrorRecord(unitID), nil
	}

	if c.logger.GetLevel() <= zerolog.DebugLevel {
		logger.Debug().Strs("raw", driver.FormatBlock(block)).Msg("Raw register block")
	}

	rec := c.drv.Decode(unitID, block)
	if c.metrics != nil {
		c.metrics.RecordUnitRead(string(rec.Status))
	}
	if rec.Status == domain.StatusDecodeError {
		logger.Warn().Int("block_len", len(block)).Msg("Decode failed, recording decode-error row")
	}
	return rec, nil
}
