package driver

import (
	"fmt"

	"github.com/nexus-edge/field-logger/internal/decode"
	"github.com/nexus-edge/field-logger/internal/domain"
)

// TypeWeatherStation is the registry name for the pyranometer/weather mast.
const TypeWeatherStation = "weather_station"

// Weather station register map: fixed named offsets into one block, each
// channel with its own divisor.
const (
	weatherIrradianceReg = 0 // W/m2, unscaled
	weatherWindSpeedReg  = 1 // divisor 10 -> m/s
	weatherWindDirReg    = 2 // degrees, unscaled
	weatherAirTempReg    = 3 // signed, divisor 10 -> degC
	weatherHumidityReg   = 4 // divisor 10 -> %RH
	weatherPressureReg   = 5 // divisor 10 -> hPa

	weatherMinRegisters = 6
)

var weatherFields = []string{
	"irradiance_wm2",
	"wind_speed_ms",
	"wind_direction_deg",
	"air_temp_c",
	"humidity_pct",
	"pressure_hpa",
}

// WeatherStation decodes weather mast register blocks.
type WeatherStation struct{}

// NewWeatherStation builds the weather station driver.
func NewWeatherStation(desc domain.DeviceDescriptor) (domain.Driver, error) {
	if desc.RegisterCount < weatherMinRegisters {
		return nil, fmt.Errorf("%w: %s needs at least %d registers, got %d",
			domain.ErrInvalidRegisterCount, TypeWeatherStation, weatherMinRegisters, desc.RegisterCount)
	}
	return &WeatherStation{}, nil
}

func (d *WeatherStation) TypeName() string { return TypeWeatherStation }

func (d *WeatherStation) FieldNames() []string { return weatherFields }

func (d *WeatherStation) Escalation() domain.Escalation { return domain.EscalationSoftFail }

// Decode extracts the named channels from one block. Air temperature is the
// only signed quantity on this map.
func (d *WeatherStation) Decode(unitID uint8, regs []uint16) domain.Record {
	if len(regs) < weatherMinRegisters {
		return domain.NewErrorRecord(unitID, weatherFields, domain.StatusDecodeError)
	}

	windSpeed := float64(regs[weatherWindSpeedReg])
	airTemp := float64(int16(regs[weatherAirTempReg]))
	humidity := float64(regs[weatherHumidityReg])
	pressure := float64(regs[weatherPressureReg])

	return domain.NewRecord(unitID, []domain.Field{
		{Name: weatherFields[0], Value: int(regs[weatherIrradianceReg])},
		{Name: weatherFields[1], Value: numeric(decode.Scaled(&windSpeed, 10, 1))},
		{Name: weatherFields[2], Value: int(regs[weatherWindDirReg])},
		{Name: weatherFields[3], Value: numeric(decode.Scaled(&airTemp, 10, 1))},
		{Name: weatherFields[4], Value: numeric(decode.Scaled(&humidity, 10, 1))},
		{Name: weatherFields[5], Value: numeric(decode.Scaled(&pressure, 10, 1))},
	})
}

// ErrorRecord emits the full-width nil record for a failed transport read.
func (d *WeatherStation) ErrorRecord(unitID uint8) domain.Record {
	return domain.NewErrorRecord(unitID, weatherFields, domain.StatusDeviceError)
}
