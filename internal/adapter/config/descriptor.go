package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nexus-edge/field-logger/internal/adapter/modbus"
	"github.com/nexus-edge/field-logger/internal/domain"
	"github.com/nexus-edge/field-logger/internal/service"
)

// DescriptorFile is the on-disk shape of a logger descriptor. One descriptor
// fully describes a poller: the Modbus link, the device block layout, and
// the output settings.
type DescriptorFile struct {
	Modbus  ModbusBlock  `json:"modbus" yaml:"modbus"`
	Device  DeviceBlock  `json:"device" yaml:"device"`
	Logging LoggingBlock `json:"logging" yaml:"logging"`
}

// ModbusBlock describes the transport link.
type ModbusBlock struct {
	Type       string `json:"type" yaml:"type"` // tcp or serial
	Host       string `json:"host" yaml:"host"`
	Port       int    `json:"port" yaml:"port"`
	SerialPort string `json:"serial_port" yaml:"serial_port"`
	BaudRate   int    `json:"baud_rate" yaml:"baud_rate"`
	DataBits   int    `json:"data_bits" yaml:"data_bits"`
	Parity     string `json:"parity" yaml:"parity"`
	StopBits   int    `json:"stop_bits" yaml:"stop_bits"`
	TimeoutMS  int    `json:"timeout_ms" yaml:"timeout_ms"`
}

// DeviceBlock describes the polled device family.
type DeviceBlock struct {
	Type          string `json:"type" yaml:"type"`
	StartAddr     uint16 `json:"start_addr" yaml:"start_addr"`
	RegCount      uint16 `json:"reg_count" yaml:"reg_count"`
	IDRange       []int  `json:"id_range" yaml:"id_range"` // [first, last] inclusive
	RetryAttempts int    `json:"retry_attempts" yaml:"retry_attempts"`
	RetryBackofMS int    `json:"retry_backoff_ms" yaml:"retry_backoff_ms"`
}

// LoggingBlock describes the CSV output and housekeeping settings.
type LoggingBlock struct {
	BaseFolder    string   `json:"base_folder" yaml:"base_folder"`
	FileSuffix    string   `json:"file_suffix" yaml:"file_suffix"`
	Header        []string `json:"header" yaml:"header"`
	RetentionDays int      `json:"retention_days" yaml:"retention_days"`
	TimeStepSec   int      `json:"time_step_sec" yaml:"time_step_sec"`
	LogDir        string   `json:"log_dir" yaml:"log_dir"`
}

// Descriptor is the validated, typed view of a descriptor file, ready to
// hand to the transport, cycle and sink constructors.
type Descriptor struct {
	Device    domain.DeviceDescriptor
	Transport modbus.Config
	Retry     service.RetryPolicy
	Interval  time.Duration

	BaseFolder    string
	FileSuffix    string
	Header        []string
	RetentionDays int
	LogDir        string
}

// LoadDescriptor reads and validates a descriptor file. The format is
// chosen by extension: .json for JSON, .yaml or .yml for YAML.
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading descriptor %s: %v", domain.ErrInvalidConfig, path, err)
	}

	var file DescriptorFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfig, path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfig, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported descriptor format %q", domain.ErrInvalidConfig, ext)
	}

	return file.ToDescriptor()
}

// ToDescriptor validates the raw file and builds the typed descriptor.
func (f *DescriptorFile) ToDescriptor() (*Descriptor, error) {
	transport, err := f.Modbus.toTransportConfig()
	if err != nil {
		return nil, err
	}

	device, err := f.Device.toDeviceDescriptor()
	if err != nil {
		return nil, err
	}

	retry := service.DefaultRetryPolicy()
	if f.Device.RetryAttempts > 0 {
		retry.MaxAttempts = f.Device.RetryAttempts
	}
	if f.Device.RetryBackofMS > 0 {
		retry.Backoff = time.Duration(f.Device.RetryBackofMS) * time.Millisecond
	}
	if err := retry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	if f.Logging.BaseFolder == "" {
		return nil, fmt.Errorf("%w: base_folder is required", domain.ErrInvalidConfig)
	}
	if len(f.Logging.Header) == 0 {
		return nil, fmt.Errorf("%w: header is required", domain.ErrInvalidConfig)
	}

	interval := time.Duration(f.Logging.TimeStepSec) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}

	retention := f.Logging.RetentionDays
	if retention <= 0 {
		retention = 30
	}

	suffix := f.Logging.FileSuffix
	if suffix == "" {
		suffix = strings.ReplaceAll(device.TypeName, " ", "_")
	}

	return &Descriptor{
		Device:        device,
		Transport:     transport,
		Retry:         retry,
		Interval:      interval,
		BaseFolder:    f.Logging.BaseFolder,
		FileSuffix:    suffix,
		Header:        f.Logging.Header,
		RetentionDays: retention,
		LogDir:        f.Logging.LogDir,
	}, nil
}

func (b *ModbusBlock) toTransportConfig() (modbus.Config, error) {
	cfg := modbus.Config{
		Host:       b.Host,
		Port:       b.Port,
		SerialPort: b.SerialPort,
		BaudRate:   b.BaudRate,
		DataBits:   b.DataBits,
		Parity:     b.Parity,
		StopBits:   b.StopBits,
		Timeout:    time.Duration(b.TimeoutMS) * time.Millisecond,
	}

	switch strings.ToLower(b.Type) {
	case "tcp":
		cfg.Mode = modbus.ModeTCP
		if cfg.Host == "" {
			return modbus.Config{}, fmt.Errorf("%w: tcp transport requires host", domain.ErrInvalidConfig)
		}
		if cfg.Port <= 0 {
			cfg.Port = 502
		}
	case "serial", "rtu":
		cfg.Mode = modbus.ModeSerial
		if cfg.SerialPort == "" {
			return modbus.Config{}, fmt.Errorf("%w: serial transport requires serial_port", domain.ErrInvalidConfig)
		}
		if cfg.BaudRate <= 0 {
			cfg.BaudRate = 9600
		}
		if cfg.DataBits <= 0 {
			cfg.DataBits = 8
		}
		if cfg.Parity == "" {
			cfg.Parity = "N"
		}
		if cfg.StopBits <= 0 {
			cfg.StopBits = 1
		}
	case "":
		return modbus.Config{}, fmt.Errorf("%w: transport type is required", domain.ErrInvalidTransportType)
	default:
		return modbus.Config{}, fmt.Errorf("%w: %q", domain.ErrInvalidTransportType, b.Type)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return cfg, nil
}

func (b *DeviceBlock) toDeviceDescriptor() (domain.DeviceDescriptor, error) {
	if b.Type == "" {
		return domain.DeviceDescriptor{}, fmt.Errorf("%w: device type is required", domain.ErrDeviceTypeRequired)
	}
	if len(b.IDRange) != 2 {
		return domain.DeviceDescriptor{}, fmt.Errorf("%w: id_range must be [first, last]", domain.ErrInvalidUnitRange)
	}
	first, last := b.IDRange[0], b.IDRange[1]
	if first < 1 || last > 247 || first > last {
		return domain.DeviceDescriptor{}, fmt.Errorf("%w: [%d, %d]", domain.ErrInvalidUnitRange, first, last)
	}

	desc := domain.DeviceDescriptor{
		TypeName:      b.Type,
		StartAddress:  b.StartAddr,
		RegisterCount: b.RegCount,
		FirstUnitID:   uint8(first),
		LastUnitID:    uint8(last),
	}
	if err := desc.Validate(); err != nil {
		return domain.DeviceDescriptor{}, err
	}
	return desc, nil
}
