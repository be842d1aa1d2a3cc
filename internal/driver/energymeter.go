package driver

import (
	"fmt"

	"github.com/nexus-edge/field-logger/internal/decode"
	"github.com/nexus-edge/field-logger/internal/domain"
)

// TypeEnergyMeter is the registry name for the DCM3366 DC power meter.
const TypeEnergyMeter = "dcm3366"

// DCM3366 register layout: each quantity is a 32-bit big-endian value split
// across two registers. Only a handful of the block's registers carry the
// quantities we log.
const (
	energyMeterMinRegisters = 26

	energyHiReg  = 0  // forward energy, divisor 100 -> kWh
	powerHiReg   = 20 // active power, divisor 1000 -> kW
	currentHiReg = 22 // current, divisor 10000 -> A
	voltageHiReg = 24 // voltage, divisor 10000 -> V
)

var energyMeterFields = []string{
	"forward_energy_kwh",
	"active_power_kw",
	"current_a",
	"voltage_v",
}

// EnergyMeter decodes DCM3366 DC power meter register blocks.
type EnergyMeter struct{}

// NewEnergyMeter builds the energy meter driver, checking that the
// configured block is wide enough for the meter's register map.
func NewEnergyMeter(desc domain.DeviceDescriptor) (domain.Driver, error) {
	if desc.RegisterCount < energyMeterMinRegisters {
		return nil, fmt.Errorf("%w: %s needs at least %d registers, got %d",
			domain.ErrInvalidRegisterCount, TypeEnergyMeter, energyMeterMinRegisters, desc.RegisterCount)
	}
	return &EnergyMeter{}, nil
}

func (d *EnergyMeter) TypeName() string { return TypeEnergyMeter }

func (d *EnergyMeter) FieldNames() []string { return energyMeterFields }

func (d *EnergyMeter) Escalation() domain.Escalation { return domain.EscalationSoftFail }

// Decode extracts forward energy, active power, current and voltage from
// one register block.
func (d *EnergyMeter) Decode(unitID uint8, regs []uint16) domain.Record {
	if len(regs) < energyMeterMinRegisters {
		return domain.NewErrorRecord(unitID, energyMeterFields, domain.StatusDecodeError)
	}

	energy := float64(decode.BigEndian32(regs[energyHiReg], regs[energyHiReg+1]))
	power := float64(decode.BigEndian32(regs[powerHiReg], regs[powerHiReg+1]))
	current := float64(decode.BigEndian32(regs[currentHiReg], regs[currentHiReg+1]))
	voltage := float64(decode.BigEndian32(regs[voltageHiReg], regs[voltageHiReg+1]))

	return domain.NewRecord(unitID, []domain.Field{
		{Name: energyMeterFields[0], Value: numeric(decode.Scaled(&energy, 100, 3))},
		{Name: energyMeterFields[1], Value: numeric(decode.Scaled(&power, 1000, 3))},
		{Name: energyMeterFields[2], Value: numeric(decode.Scaled(&current, 10000, 4))},
		{Name: energyMeterFields[3], Value: numeric(decode.Scaled(&voltage, 10000, 1))},
	})
}

// ErrorRecord emits the full-width nil record for a failed transport read.
func (d *EnergyMeter) ErrorRecord(unitID uint8) domain.Record {
	return domain.NewErrorRecord(unitID, energyMeterFields, domain.StatusDeviceError)
}
