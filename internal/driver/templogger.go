package driver

import (
	"fmt"

	"github.com/nexus-edge/field-logger/internal/decode"
	"github.com/nexus-edge/field-logger/internal/domain"
)

// TypeTemperatureLogger is the registry name for the TP-700 24-channel
// temperature data logger.
const TypeTemperatureLogger = "tp700"

const (
	tempChannels         = 24
	tempLoggerRegisters  = tempChannels * 2 // one big-endian float32 per channel
	tempChannelPrecision = 2
)

var tempLoggerFields = tempChannelNames()

func tempChannelNames() []string {
	names := make([]string, tempChannels)
	for i := range names {
		names[i] = fmt.Sprintf("ch%02d_temp_c", i+1)
	}
	return names
}

// TemperatureLogger decodes TP-700 blocks: 24 channels, each an IEEE-754
// binary32 spread over two big-endian registers.
type TemperatureLogger struct{}

// NewTemperatureLogger builds the temperature logger driver.
func NewTemperatureLogger(desc domain.DeviceDescriptor) (domain.Driver, error) {
	if desc.RegisterCount < tempLoggerRegisters {
		return nil, fmt.Errorf("%w: %s needs at least %d registers, got %d",
			domain.ErrInvalidRegisterCount, TypeTemperatureLogger, tempLoggerRegisters, desc.RegisterCount)
	}
	return &TemperatureLogger{}, nil
}

func (d *TemperatureLogger) TypeName() string { return TypeTemperatureLogger }

func (d *TemperatureLogger) FieldNames() []string { return tempLoggerFields }

func (d *TemperatureLogger) Escalation() domain.Escalation { return domain.EscalationSoftFail }

// Decode converts the 48-register block into 24 channel temperatures.
func (d *TemperatureLogger) Decode(unitID uint8, regs []uint16) domain.Record {
	if len(regs) < tempLoggerRegisters {
		return domain.NewErrorRecord(unitID, tempLoggerFields, domain.StatusDecodeError)
	}

	fields := make([]domain.Field, tempChannels)
	for ch := 0; ch < tempChannels; ch++ {
		t := decode.Float32FromRegisters(regs[2*ch], regs[2*ch+1])
		fields[ch] = domain.Field{
			Name:  tempLoggerFields[ch],
			Value: decode.Round(float64(t), tempChannelPrecision),
		}
	}
	return domain.NewRecord(unitID, fields)
}

// ErrorRecord emits the full-width nil record for a failed transport read.
func (d *TemperatureLogger) ErrorRecord(unitID uint8) domain.Record {
	return domain.NewErrorRecord(unitID, tempLoggerFields, domain.StatusDeviceError)
}
