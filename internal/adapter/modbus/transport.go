// Package modbus wraps a goburrow/modbus client as the single shared
// transport for the field logger. One connection serves the whole process
// lifetime; reads are strictly sequential because most supported links are
// half-duplex serial buses.
package modbus

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goburrow/modbus"
	"github.com/nexus-edge/field-logger/internal/domain"
	"github.com/rs/zerolog"
)

// Mode selects the underlying transport framing.
type Mode string

const (
	ModeTCP    Mode = "tcp"
	ModeSerial Mode = "serial"
)

// Config holds transport parameters for either framing mode.
type Config struct {
	Mode Mode

	// TCP parameters
	Host string
	Port int

	// Serial RTU parameters
	SerialPort string
	BaudRate   int
	DataBits   int
	Parity     string // "N", "E" or "O"
	StopBits   int

	// Timeout is the per-request transport timeout.
	Timeout time.Duration
}

// Stats tracks transport usage counters.
type Stats struct {
	ReadCount     atomic.Uint64
	ErrorCount    atomic.Uint64
	TotalReadTime atomic.Int64 // nanoseconds
}

// Transport owns the process-wide Modbus connection. It is exclusively
// owned by the poll scheduler; no other component may close or reconfigure
// it. Close is idempotent.
type Transport struct {
	config    Config
	tcp       *modbus.TCPClientHandler
	rtu       *modbus.RTUClientHandler
	client    modbus.Client
	logger    zerolog.Logger
	opMu      sync.Mutex // goburrow clients are not safe for concurrent requests
	connected atomic.Bool
	closeOnce sync.Once
	closeErr  error
	stats     *Stats
}

// New creates a transport for the given configuration. The connection is
// not established until Connect.
func New(config Config, logger zerolog.Logger) (*Transport, error) {
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}

	t := &Transport{
		config: config,
		stats:  &Stats{},
	}

	switch config.Mode {
	case ModeTCP:
		if config.Host == "" || config.Port <= 0 {
			return nil, fmt.Errorf("%w: tcp transport requires host and port", domain.ErrInvalidConfig)
		}
		addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
		handler := modbus.NewTCPClientHandler(addr)
		handler.Timeout = config.Timeout
		t.tcp = handler
		t.client = modbus.NewClient(handler)
		t.logger = logger.With().Str("component", "modbus-transport").Str("address", addr).Logger()

	case ModeSerial:
		if config.SerialPort == "" {
			return nil, fmt.Errorf("%w: serial transport requires a port", domain.ErrInvalidConfig)
		}
		handler := modbus.NewRTUClientHandler(config.SerialPort)
		handler.Timeout = config.Timeout
		handler.BaudRate = config.BaudRate
		handler.DataBits = config.DataBits
		handler.Parity = config.Parity
		handler.StopBits = config.StopBits
		t.rtu = handler
		t.client = modbus.NewClient(handler)
		t.logger = logger.With().Str("component", "modbus-transport").Str("address", config.SerialPort).Logger()

	default:
		return nil, fmt.Errorf("%w: %q (expected %q or %q)", domain.ErrInvalidTransportType, config.Mode, ModeTCP, ModeSerial)
	}

	return t, nil
}

// Connect establishes the connection. For serial links this opens and
// configures the port; for TCP it dials the gateway.
func (t *Transport) Connect(ctx context.Context) error {
	if t.connected.Load() {
		return nil
	}

	t.logger.Debug().Msg("Connecting to Modbus link")

	connectDone := make(chan error, 1)
	go func() {
		connectDone <- t.handlerConnect()
	}()

	select {
	case err := <-connectDone:
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrConnectionFailed, err)
		}
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrConnectionTimeout, ctx.Err())
	}

	t.connected.Store(true)
	t.logger.Info().Msg("Connected to Modbus link")
	return nil
}

func (t *Transport) handlerConnect() error {
	if t.tcp != nil {
		return t.tcp.Connect()
	}
	return t.rtu.Connect()
}

// ReadBlock reads count holding registers starting at address from the
// given unit id. Returns the block as 16-bit values, or a transport error.
func (t *Transport) ReadBlock(ctx context.Context, address, count uint16, unitID uint8) ([]uint16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !t.connected.Load() {
		return nil, domain.ErrConnectionClosed
	}

	t.opMu.Lock()
	defer t.opMu.Unlock()

	start := time.Now()
	t.setUnitID(unitID)
	raw, err := t.client.ReadHoldingRegisters(address, count)
	t.stats.TotalReadTime.Add(time.Since(start).Nanoseconds())

	if err != nil {
		t.stats.ErrorCount.Add(1)
		return nil, translateError(err)
	}
	if len(raw) < int(count)*2 {
		t.stats.ErrorCount.Add(1)
		return nil, fmt.Errorf("%w: got %d bytes, want %d", domain.ErrReadFailed, len(raw), int(count)*2)
	}

	regs := make([]uint16, count)
	for i := range regs {
		regs[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
	}

	t.stats.ReadCount.Add(1)
	return regs, nil
}

// setUnitID retargets the shared handler at one unit on the link. Callers
// hold opMu.
func (t *Transport) setUnitID(unitID uint8) {
	if t.tcp != nil {
		t.tcp.SlaveId = unitID
		return
	}
	t.rtu.SlaveId = unitID
}

// Close shuts the connection down. Safe to call more than once; the
// underlying handler is closed exactly once.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.connected.Store(false)
		if t.tcp != nil {
			t.closeErr = t.tcp.Close()
		} else if t.rtu != nil {
			t.closeErr = t.rtu.Close()
		}
		t.logger.Debug().Msg("Modbus link closed")
	})
	return t.closeErr
}

// Connected reports whether Connect has succeeded and Close has not run.
func (t *Transport) Connected() bool {
	return t.connected.Load()
}

// HealthCheck reports the link state for the health endpoint.
func (t *Transport) HealthCheck(ctx context.Context) error {
	if !t.connected.Load() {
		return domain.ErrConnectionClosed
	}
	return nil
}

// GetStats returns a snapshot of the transport counters.
func (t *Transport) GetStats() map[string]uint64 {
	return map[string]uint64{
		"read_count":    t.stats.ReadCount.Load(),
		"error_count":   t.stats.ErrorCount.Load(),
		"total_read_ns": uint64(t.stats.TotalReadTime.Load()),
	}
}

// translateError maps library and network failures onto the domain error
// taxonomy so the retry policy can treat them uniformly.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if mbErr, ok := err.(*modbus.ModbusError); ok {
		return fmt.Errorf("%w: %v", domain.ModbusExceptionToError(mbErr.ExceptionCode), err)
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrConnectionTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrReadFailed, err)
}
