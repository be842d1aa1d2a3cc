// Package domain contains core business entities.
package domain

import "errors"

// Configuration errors. All of these are fatal at startup: the process
// must not begin polling with a broken descriptor.
var (
	ErrUnknownDeviceType    = errors.New("unknown device type")
	ErrDeviceTypeRequired   = errors.New("device type name is required")
	ErrInvalidUnitRange     = errors.New("invalid unit id range")
	ErrInvalidRegisterCount = errors.New("invalid register count")
	ErrHeaderMismatch       = errors.New("declared header does not match driver field list")
	ErrInvalidTransportType = errors.New("invalid transport type")
	ErrInvalidConfig        = errors.New("invalid configuration")
)

// Transport errors. Recoverable: retried per the retry policy.
var (
	ErrConnectionFailed  = errors.New("connection failed")
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrReadFailed        = errors.New("read operation failed")
	ErrRetriesExhausted  = errors.New("maximum retry attempts exceeded")
)

// Decode errors. Recorded as a device-error row; the cycle continues.
var (
	ErrShortBlock = errors.New("register block shorter than required")
)

// Sink errors.
var (
	ErrRowWidthMismatch = errors.New("row width does not match header")
)

// Mirror publisher errors. The mirror is best-effort: these never abort
// a poll cycle.
var (
	ErrMirrorConnectionFailed = errors.New("mirror broker connection failed")
	ErrMirrorNotConnected     = errors.New("mirror publisher not connected")
	ErrMirrorPublishFailed    = errors.New("mirror publish failed")
	ErrMirrorUnavailable      = errors.New("mirror publisher unavailable")
)

// Modbus exception responses, translated from the wire-level exception code.
var (
	ErrModbusIllegalFunction        = errors.New("modbus: illegal function")
	ErrModbusIllegalAddress         = errors.New("modbus: illegal data address")
	ErrModbusIllegalValue           = errors.New("modbus: illegal data value")
	ErrModbusDeviceFailure          = errors.New("modbus: slave device failure")
	ErrModbusAcknowledge            = errors.New("modbus: acknowledge - long operation in progress")
	ErrModbusBusy                   = errors.New("modbus: slave device busy")
	ErrModbusMemoryParityError      = errors.New("modbus: memory parity error")
	ErrModbusGatewayPathUnavailable = errors.New("modbus: gateway path unavailable")
	ErrModbusGatewayTargetFailed    = errors.New("modbus: gateway target device failed to respond")
)

// ModbusExceptionToError converts a Modbus exception code to a domain error.
func ModbusExceptionToError(code byte) error {
	switch code {
	case 0x01:
		return ErrModbusIllegalFunction
	case 0x02:
		return ErrModbusIllegalAddress
	case 0x03:
		return ErrModbusIllegalValue
	case 0x04:
		return ErrModbusDeviceFailure
	case 0x05:
		return ErrModbusAcknowledge
	case 0x06:
		return ErrModbusBusy
	case 0x08:
		return ErrModbusMemoryParityError
	case 0x0A:
		return ErrModbusGatewayPathUnavailable
	case 0x0B:
		return ErrModbusGatewayTargetFailed
	default:
		return ErrReadFailed
	}
}
