// Package domain contains core business entities.
package domain

import "time"

// Escalation is the policy applied when retries for one unit are exhausted.
type Escalation string

const (
	// EscalationSoftFail emits a device-error record for the unit and
	// continues with the rest of the cycle.
	EscalationSoftFail Escalation = "soft-fail"

	// EscalationHardFail aborts the whole process: a shared link serving
	// many logical sub-devices is assumed broken at the link level when
	// retries run out, and an external supervisor restarts the process.
	EscalationHardFail Escalation = "hard-fail"
)

// Driver decodes raw register blocks for one instrument model. Implementations
// are pure: all I/O and retry handling happens in the polling service.
type Driver interface {
	// TypeName is the registry key this driver is resolved by.
	TypeName() string

	// FieldNames lists the decoded field names in output order. The list is
	// fixed for the driver's lifetime; every record it produces has exactly
	// this many fields.
	FieldNames() []string

	// Escalation is the retry-exhaustion policy for this driver class.
	Escalation() Escalation

	// Decode converts one raw register block into a record. A block shorter
	// than the driver requires yields a StatusDecodeError record with nil
	// fields, never a panic and never a record of differing width.
	Decode(unitID uint8, regs []uint16) Record

	// ErrorRecord is the full-width nil record emitted when the transport
	// read itself failed for the unit.
	ErrorRecord(unitID uint8) Record
}

// BlockAddresser is implemented by drivers whose logical sub-devices live at
// a per-unit offset within one shared register map (multi-inverter stations).
// unitIndex is 0-based within the configured range.
type BlockAddresser interface {
	BlockAddress(start uint16, unitIndex int) uint16
}

// Pacer is implemented by drivers that need a delay between consecutive unit
// reads, to avoid overwhelming a TCP gateway. A zero duration disables pacing.
type Pacer interface {
	ReadPacing() time.Duration
}
