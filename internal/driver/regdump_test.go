package driver_test

import (
	"testing"

	"github.com/nexus-edge/field-logger/internal/domain"
	"github.com/nexus-edge/field-logger/internal/driver"
)

func TestRegisterDump_Decode(t *testing.T) {
	desc := domain.DeviceDescriptor{
		TypeName:      driver.TypeRegisterDump,
		RegisterCount: 4,
		FirstUnitID:   1,
		LastUnitID:    1,
	}
	drv, err := driver.NewRegisterDump(desc)
	if err != nil {
		t.Fatalf("NewRegisterDump() error = %v", err)
	}

	wantNames := []string{"reg_000", "reg_001", "reg_002", "reg_003"}
	names := drv.FieldNames()
	if len(names) != len(wantNames) {
		t.Fatalf("FieldNames() returned %d names, want %d", len(names), len(wantNames))
	}
	for i := range names {
		if names[i] != wantNames[i] {
			t.Errorf("FieldNames()[%d] = %q, want %q", i, names[i], wantNames[i])
		}
	}

	rec := drv.Decode(1, []uint16{0, 100, 65535, 42})

	if rec.Status != domain.StatusOK {
		t.Fatalf("Status = %q, want %q", rec.Status, domain.StatusOK)
	}
	wantValues := []int{0, 100, 65535, 42}
	for i, f := range rec.Fields {
		if f.Value != wantValues[i] {
			t.Errorf("Fields[%d] = %v, want %d", i, f.Value, wantValues[i])
		}
	}
}

func TestFormatBlock(t *testing.T) {
	tests := []struct {
		name string
		regs []uint16
		want []string
	}{
		{
			name: "empty",
			regs: nil,
			want: []string{},
		},
		{
			name: "single line",
			regs: []uint16{0x0001, 0xBEEF},
			want: []string{"000=0x0001 001=0xbeef"},
		},
		{
			name: "wraps at eight",
			regs: make([]uint16, 9),
			want: []string{
				"000=0x0000 001=0x0000 002=0x0000 003=0x0000 004=0x0000 005=0x0000 006=0x0000 007=0x0000",
				"008=0x0000",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := driver.FormatBlock(tt.regs)
			if len(got) != len(tt.want) {
				t.Fatalf("FormatBlock() returned %d lines, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
