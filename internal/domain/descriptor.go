// Package domain contains core business entities.
package domain

// DeviceDescriptor describes one configured instrument class on the link:
// which driver decodes it, where its register block starts, how many
// registers one read returns, and which unit ids to visit each cycle.
// Built once from configuration at startup and immutable thereafter.
type DeviceDescriptor struct {
	// TypeName selects the device driver by registry lookup.
	TypeName string

	// StartAddress is the 0-based register address of the block.
	StartAddress uint16

	// RegisterCount is the number of 16-bit registers per read request.
	// Bounded by the protocol per-request maximum.
	RegisterCount uint16

	// FirstUnitID and LastUnitID bound the inclusive unit id range,
	// visited in ascending order every cycle.
	FirstUnitID uint8
	LastUnitID  uint8
}

// maxRegistersPerRead is the Modbus per-request limit for holding and
// input registers.
const maxRegistersPerRead = 125

// Validate checks the descriptor for configuration errors.
func (d DeviceDescriptor) Validate() error {
	if d.TypeName == "" {
		return ErrDeviceTypeRequired
	}
	if d.RegisterCount == 0 || d.RegisterCount > maxRegistersPerRead {
		return ErrInvalidRegisterCount
	}
	if d.FirstUnitID == 0 || d.LastUnitID < d.FirstUnitID {
		return ErrInvalidUnitRange
	}
	return nil
}

// UnitIDs returns the configured unit id range in ascending order.
func (d DeviceDescriptor) UnitIDs() []uint8 {
	ids := make([]uint8, 0, int(d.LastUnitID)-int(d.FirstUnitID)+1)
	for id := int(d.FirstUnitID); id <= int(d.LastUnitID); id++ {
		ids = append(ids, uint8(id))
	}
	return ids
}

// UnitCount returns the number of unit ids in the configured range.
func (d DeviceDescriptor) UnitCount() int {
	return int(d.LastUnitID) - int(d.FirstUnitID) + 1
}
