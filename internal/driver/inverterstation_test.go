package driver_test

import (
	"testing"
	"time"

	"github.com/nexus-edge/field-logger/internal/domain"
	"github.com/nexus-edge/field-logger/internal/driver"
)

func inverterDescriptor() domain.DeviceDescriptor {
	return domain.DeviceDescriptor{
		TypeName:      driver.TypeInverterStation,
		StartAddress:  1000,
		RegisterCount: 19,
		FirstUnitID:   1,
		LastUnitID:    6,
	}
}

func TestInverterStation_Decode(t *testing.T) {
	drv, err := driver.NewInverterStation(inverterDescriptor())
	if err != nil {
		t.Fatalf("NewInverterStation() error = %v", err)
	}

	regs := make([]uint16, 19)
	// Serial "1234567890" packed two ASCII bytes per register.
	regs[0], regs[1], regs[2], regs[3], regs[4] = 0x3132, 0x3334, 0x3536, 0x3738, 0x3930
	regs[5] = 2                // status code
	regs[6], regs[7] = 0, 123  // today: 12.3 kWh
	regs[8], regs[9] = 0, 4567 // total: 456.7 kWh
	// PV string 1: 350.1 V, 8.25 A, 2888.8 W
	regs[10], regs[11], regs[12] = 3501, 825, 28888
	// PV string 2: 349.0 V, 8.00 A, 2792.0 W
	regs[13], regs[14], regs[15] = 3490, 800, 27920
	// PV string 3 left at zero.

	rec := drv.Decode(3, regs)

	if rec.Status != domain.StatusOK {
		t.Fatalf("Status = %q, want %q", rec.Status, domain.StatusOK)
	}
	if len(rec.Fields) != 13 {
		t.Fatalf("record has %d fields, want 13", len(rec.Fields))
	}

	byName := make(map[string]interface{}, len(rec.Fields))
	for _, f := range rec.Fields {
		byName[f.Name] = f.Value
	}

	if got := byName["serial_number"]; got != "31323334353637383930" {
		t.Errorf("serial_number = %v, want 31323334353637383930", got)
	}
	if got := byName["status_code"]; got != 2 {
		t.Errorf("status_code = %v, want 2", got)
	}

	wantFloats := map[string]float64{
		"today_energy_kwh": 12.3,
		"total_energy_kwh": 456.7,
		"pv1_voltage_v":    350.1,
		"pv1_current_a":    8.25,
		"pv1_power_w":      2888.8,
		"pv2_voltage_v":    349.0,
		"pv2_current_a":    8.0,
		"pv2_power_w":      2792.0,
		"pv3_voltage_v":    0,
		"pv3_current_a":    0,
		"pv3_power_w":      0,
	}
	for name, want := range wantFloats {
		got, ok := byName[name].(float64)
		if !ok {
			t.Errorf("field %q has value %v (%T), want float64", name, byName[name], byName[name])
			continue
		}
		if got != want {
			t.Errorf("field %q = %v, want %v", name, got, want)
		}
	}
}

func TestInverterStation_BlockAddress(t *testing.T) {
	drv, err := driver.NewInverterStation(inverterDescriptor())
	if err != nil {
		t.Fatalf("NewInverterStation() error = %v", err)
	}

	ba, ok := drv.(domain.BlockAddresser)
	if !ok {
		t.Fatal("inverter station driver does not implement BlockAddresser")
	}

	tests := []struct {
		unitIndex int
		want      uint16
	}{
		{unitIndex: 0, want: 1000},
		{unitIndex: 1, want: 1096},
		{unitIndex: 5, want: 1480},
	}
	for _, tt := range tests {
		if got := ba.BlockAddress(1000, tt.unitIndex); got != tt.want {
			t.Errorf("BlockAddress(1000, %d) = %d, want %d", tt.unitIndex, got, tt.want)
		}
	}
}

func TestInverterStation_PacingAndEscalation(t *testing.T) {
	drv, err := driver.NewInverterStation(inverterDescriptor())
	if err != nil {
		t.Fatalf("NewInverterStation() error = %v", err)
	}

	if drv.Escalation() != domain.EscalationHardFail {
		t.Errorf("Escalation() = %v, want hard-fail", drv.Escalation())
	}

	pacer, ok := drv.(domain.Pacer)
	if !ok {
		t.Fatal("inverter station driver does not implement Pacer")
	}
	if pacer.ReadPacing() != 500*time.Millisecond {
		t.Errorf("ReadPacing() = %v, want 500ms", pacer.ReadPacing())
	}
}
