package driver

import (
	"fmt"
	"time"

	"github.com/nexus-edge/field-logger/internal/decode"
	"github.com/nexus-edge/field-logger/internal/domain"
)

// TypeInverterStation is the registry name for a TCP gateway exposing many
// logical inverters inside one shared register map.
const TypeInverterStation = "inverter_station"

// Inverter register layout, relative to each unit's block start. Each unit's
// block begins at startAddress + inverterUnitStride*unitIndex.
const (
	// inverterUnitStride is the register offset between consecutive logical
	// inverters. Fixed by the gateway firmware; confirm against the station
	// register map before changing.
	inverterUnitStride = 96

	inverterSerialReg  = 0 // 5 registers, packed ASCII/hex identifier
	inverterSerialRegs = 5
	inverterStatusReg  = 5  // operating-status code, passthrough
	inverterTodayHiReg = 6  // today production, 32-bit BE, divisor 10 -> kWh
	inverterTotalHiReg = 8  // total production, 32-bit BE, divisor 10 -> kWh
	inverterPVBaseReg  = 10 // first PV string triplet
	inverterPVStride   = 3  // registers per PV string triplet
	inverterPVStrings  = 3
	inverterMinRegs    = inverterPVBaseReg + inverterPVStrings*inverterPVStride
)

// inverterReadPacing throttles consecutive unit reads so the gateway's
// internal bus is not overwhelmed.
const inverterReadPacing = 500 * time.Millisecond

var inverterFields = inverterFieldNames()

func inverterFieldNames() []string {
	names := []string{
		"serial_number",
		"status_code",
		"today_energy_kwh",
		"total_energy_kwh",
	}
	for s := 1; s <= inverterPVStrings; s++ {
		names = append(names,
			fmt.Sprintf("pv%d_voltage_v", s),
			fmt.Sprintf("pv%d_current_a", s),
			fmt.Sprintf("pv%d_power_w", s),
		)
	}
	return names
}

// InverterStation decodes per-inverter blocks from a shared station register
// map. Retry exhaustion for any unit is treated as a link-level failure and
// escalates to a process abort.
type InverterStation struct{}

// NewInverterStation builds the inverter station driver.
func NewInverterStation(desc domain.DeviceDescriptor) (domain.Driver, error) {
	if desc.RegisterCount < inverterMinRegs {
		return nil, fmt.Errorf("%w: %s needs at least %d registers, got %d",
			domain.ErrInvalidRegisterCount, TypeInverterStation, inverterMinRegs, desc.RegisterCount)
	}
	return &InverterStation{}, nil
}

func (d *InverterStation) TypeName() string { return TypeInverterStation }

func (d *InverterStation) FieldNames() []string { return inverterFields }

func (d *InverterStation) Escalation() domain.Escalation { return domain.EscalationHardFail }

// BlockAddress places unit i's block at a fixed stride from the station's
// start address.
func (d *InverterStation) BlockAddress(start uint16, unitIndex int) uint16 {
	return start + uint16(unitIndex)*inverterUnitStride
}

// ReadPacing returns the inter-read delay for consecutive units.
func (d *InverterStation) ReadPacing() time.Duration { return inverterReadPacing }

// Decode extracts one inverter's serial, status, production counters and PV
// string measurements.
func (d *InverterStation) Decode(unitID uint8, regs []uint16) domain.Record {
	if len(regs) < inverterMinRegs {
		return domain.NewErrorRecord(unitID, inverterFields, domain.StatusDecodeError)
	}

	today := float64(decode.BigEndian32(regs[inverterTodayHiReg], regs[inverterTodayHiReg+1]))
	total := float64(decode.BigEndian32(regs[inverterTotalHiReg], regs[inverterTotalHiReg+1]))

	fields := []domain.Field{
		{Name: inverterFields[0], Value: decode.PackedIdentifier(regs[inverterSerialReg : inverterSerialReg+inverterSerialRegs])},
		{Name: inverterFields[1], Value: int(regs[inverterStatusReg])},
		{Name: inverterFields[2], Value: numeric(decode.Scaled(&today, 10, 1))},
		{Name: inverterFields[3], Value: numeric(decode.Scaled(&total, 10, 1))},
	}

	for s := 0; s < inverterPVStrings; s++ {
		base := inverterPVBaseReg + s*inverterPVStride
		voltage := float64(regs[base])
		current := float64(regs[base+1])
		power := float64(regs[base+2])
		fields = append(fields,
			domain.Field{Name: inverterFields[4+s*3], Value: numeric(decode.Scaled(&voltage, 10, 1))},
			domain.Field{Name: inverterFields[5+s*3], Value: numeric(decode.Scaled(&current, 100, 2))},
			domain.Field{Name: inverterFields[6+s*3], Value: numeric(decode.Scaled(&power, 10, 1))},
		)
	}

	return domain.NewRecord(unitID, fields)
}

// ErrorRecord emits the full-width nil record for a failed transport read.
func (d *InverterStation) ErrorRecord(unitID uint8) domain.Record {
	return domain.NewErrorRecord(unitID, inverterFields, domain.StatusDeviceError)
}
