package driver

import (
	"fmt"
	"strings"

	"github.com/nexus-edge/field-logger/internal/domain"
)

// TypeRegisterDump is the registry name for the commissioning driver: no
// semantic decode, every register is logged raw so a new device type's
// layout can be worked out in the field.
const TypeRegisterDump = "register_dump"

// RegisterDump emits the raw register sequence, one field per register.
type RegisterDump struct {
	count  int
	fields []string
}

// NewRegisterDump builds a dump driver sized to the descriptor's block.
func NewRegisterDump(desc domain.DeviceDescriptor) (domain.Driver, error) {
	count := int(desc.RegisterCount)
	fields := make([]string, count)
	for i := range fields {
		fields[i] = fmt.Sprintf("reg_%03d", i)
	}
	return &RegisterDump{count: count, fields: fields}, nil
}

func (d *RegisterDump) TypeName() string { return TypeRegisterDump }

func (d *RegisterDump) FieldNames() []string { return d.fields }

func (d *RegisterDump) Escalation() domain.Escalation { return domain.EscalationSoftFail }

// Decode passes every register through unchanged.
func (d *RegisterDump) Decode(unitID uint8, regs []uint16) domain.Record {
	if len(regs) < d.count {
		return domain.NewErrorRecord(unitID, d.fields, domain.StatusDecodeError)
	}

	fields := make([]domain.Field, d.count)
	for i := 0; i < d.count; i++ {
		fields[i] = domain.Field{Name: d.fields[i], Value: int(regs[i])}
	}
	return domain.NewRecord(unitID, fields)
}

// ErrorRecord emits the full-width nil record for a failed transport read.
func (d *RegisterDump) ErrorRecord(unitID uint8) domain.Record {
	return domain.NewErrorRecord(unitID, d.fields, domain.StatusDeviceError)
}

// FormatBlock renders a register block in fixed-width chunks for the log,
// eight registers per line.
func FormatBlock(regs []uint16) []string {
	const perLine = 8
	lines := make([]string, 0, (len(regs)+perLine-1)/perLine)
	for i := 0; i < len(regs); i += perLine {
		end := i + perLine
		if end > len(regs) {
			end = len(regs)
		}
		parts := make([]string, 0, end-i)
		for j := i; j < end; j++ {
			parts = append(parts, fmt.Sprintf("%03d=0x%04x", j, regs[j]))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}
