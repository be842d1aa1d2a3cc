package driver_test

import (
	"errors"
	"testing"

	"github.com/nexus-edge/field-logger/internal/domain"
	"github.com/nexus-edge/field-logger/internal/driver"
)

func energyMeterDescriptor() domain.DeviceDescriptor {
	return domain.DeviceDescriptor{
		TypeName:      driver.TypeEnergyMeter,
		RegisterCount: 26,
		FirstUnitID:   1,
		LastUnitID:    1,
	}
}

func TestEnergyMeter_Decode(t *testing.T) {
	drv, err := driver.NewEnergyMeter(energyMeterDescriptor())
	if err != nil {
		t.Fatalf("NewEnergyMeter() error = %v", err)
	}

	// 32-bit raw quantities split high word first:
	// energy 100 -> 1.000 kWh, power 500000 -> 500.000 kW,
	// current 12345 -> 1.2345 A, voltage 50000 -> 5.0 V.
	regs := make([]uint16, 26)
	regs[0], regs[1] = 0, 100
	regs[20], regs[21] = 7, 41248
	regs[22], regs[23] = 0, 12345
	regs[24], regs[25] = 0, 50000

	rec := drv.Decode(5, regs)

	if rec.Status != domain.StatusOK {
		t.Fatalf("Status = %q, want %q", rec.Status, domain.StatusOK)
	}
	if rec.UnitID != 5 {
		t.Errorf("UnitID = %d, want 5", rec.UnitID)
	}

	want := map[string]float64{
		"forward_energy_kwh": 1.0,
		"active_power_kw":    500.0,
		"current_a":          1.2345,
		"voltage_v":          5.0,
	}
	if len(rec.Fields) != len(want) {
		t.Fatalf("record has %d fields, want %d", len(rec.Fields), len(want))
	}
	for _, f := range rec.Fields {
		got, ok := f.Value.(float64)
		if !ok {
			t.Errorf("field %q has value %v (%T), want float64", f.Name, f.Value, f.Value)
			continue
		}
		if got != want[f.Name] {
			t.Errorf("field %q = %v, want %v", f.Name, got, want[f.Name])
		}
	}
}

func TestEnergyMeter_DecodeShortBlock(t *testing.T) {
	drv, err := driver.NewEnergyMeter(energyMeterDescriptor())
	if err != nil {
		t.Fatalf("NewEnergyMeter() error = %v", err)
	}

	rec := drv.Decode(2, make([]uint16, 10))

	if rec.Status != domain.StatusDecodeError {
		t.Errorf("Status = %q, want %q", rec.Status, domain.StatusDecodeError)
	}
	if len(rec.Fields) != len(drv.FieldNames()) {
		t.Errorf("short-block record has %d fields, want %d", len(rec.Fields), len(drv.FieldNames()))
	}
	for _, f := range rec.Fields {
		if f.Value != nil {
			t.Errorf("field %q = %v, want nil", f.Name, f.Value)
		}
	}
}

func TestNewEnergyMeter_RejectsNarrowBlock(t *testing.T) {
	desc := energyMeterDescriptor()
	desc.RegisterCount = 20

	_, err := driver.NewEnergyMeter(desc)
	if !errors.Is(err, domain.ErrInvalidRegisterCount) {
		t.Errorf("NewEnergyMeter() error = %v, want %v", err, domain.ErrInvalidRegisterCount)
	}
}

func TestEnergyMeter_Escalation(t *testing.T) {
	drv, err := driver.NewEnergyMeter(energyMeterDescriptor())
	if err != nil {
		t.Fatalf("NewEnergyMeter() error = %v", err)
	}
	if drv.Escalation() != domain.EscalationSoftFail {
		t.Errorf("Escalation() = %v, want soft-fail", drv.Escalation())
	}
}
