// Package decode provides pure conversions from raw 16-bit Modbus register
// values to typed engineering quantities. All functions are total over
// well-formed input and perform no I/O; drivers are responsible for checking
// block length before indexing.
package decode

import (
	"encoding/binary"
	"encoding/hex"
	"math"
)

// BigEndian32 combines two 16-bit registers into a 32-bit value, high word
// first.
func BigEndian32(hi, lo uint16) uint32 {
	return uint32(hi)<<16 | uint32(lo)
}

// Float32FromRegisters reinterprets two 16-bit registers as an IEEE-754
// binary32 value. Register pairs arrive big-endian at the 16-bit level and
// the 4-byte float is itself big-endian, so the byte layout is exactly
// [hi>>8, hi, lo>>8, lo].
func Float32FromRegisters(hi, lo uint16) float32 {
	var b [4]byte
	binary.BigEndian.PutUint16(b[0:2], hi)
	binary.BigEndian.PutUint16(b[2:4], lo)
	return math.Float32frombits(binary.BigEndian.Uint32(b[:]))
}

// Round rounds v to the given number of decimal places.
func Round(v float64, precision int) float64 {
	p := math.Pow10(precision)
	return math.Round(v*p) / p
}

// Scaled divides raw by divisor and rounds the result to precision decimal
// places. A nil raw propagates as nil so device-error fields stay null.
func Scaled(raw *float64, divisor float64, precision int) *float64 {
	if raw == nil {
		return nil
	}
	v := Round(*raw/divisor, precision)
	return &v
}

// PackedIdentifier renders a register sequence as a lowercase hex string,
// each register contributing two big-endian bytes. Used for serial numbers
// and similar packed identifiers.
func PackedIdentifier(regs []uint16) string {
	b := make([]byte, 0, len(regs)*2)
	for _, r := range regs {
		b = append(b, byte(r>>8), byte(r))
	}
	return hex.EncodeToString(b)
}
