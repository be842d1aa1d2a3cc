// Package domain contains core business entities.
package domain

import "time"

// Status tags a decoded record with the outcome of the read/decode pair.
type Status string

const (
	// StatusOK means the register block was read and decoded cleanly.
	StatusOK Status = "ok"

	// StatusDeviceError means the transport read failed after all retry
	// attempts; every field of the record is nil.
	StatusDeviceError Status = "device_error"

	// StatusDecodeError means the block was read but could not be decoded
	// (short block or malformed content); every field of the record is nil.
	StatusDecodeError Status = "decode_error"
)

// Field is one named value of a decoded record. A nil Value is rendered as
// an empty cell so error rows keep the declared column alignment.
type Field struct {
	Name  string
	Value interface{}
}

// Record is the structured, per-unit-per-cycle output of a device driver,
// ready for persistence. Field order and count are fixed per device type
// and must match the declared output header for the lifetime of one file.
type Record struct {
	Timestamp time.Time
	UnitID    uint8
	Fields    []Field
	Status    Status
}

// NewRecord builds an OK record with the current timestamp.
func NewRecord(unitID uint8, fields []Field) Record {
	return Record{
		Timestamp: time.Now(),
		UnitID:    unitID,
		Fields:    fields,
		Status:    StatusOK,
	}
}

// NewErrorRecord builds a record whose fields are all nil, preserving the
// declared field count for the given names. Used for both transport-level
// device errors and decode failures.
func NewErrorRecord(unitID uint8, names []string, status Status) Record {
	fields := make([]Field, len(names))
	for i, name := range names {
		fields[i] = Field{Name: name}
	}
	return Record{
		Timestamp: time.Now(),
		UnitID:    unitID,
		Fields:    fields,
		Status:    status,
	}
}

// OK reports whether the record carries decoded values.
func (r Record) OK() bool {
	return r.Status == StatusOK
}
