package config_test

import (
	"testing"
	"time"

	"github.com/nexus-edge/field-logger/internal/adapter/config"
)

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.AppConfig
		wantErr bool
	}{
		{
			name:    "defaults disabled",
			cfg:     config.AppConfig{},
			wantErr: false,
		},
		{
			name: "metrics enabled with valid port",
			cfg: config.AppConfig{
				Metrics: config.MetricsConfig{Enabled: true, Port: 9090},
			},
			wantErr: false,
		},
		{
			name: "metrics enabled with invalid port",
			cfg: config.AppConfig{
				Metrics: config.MetricsConfig{Enabled: true, Port: 70000},
			},
			wantErr: true,
		},
		{
			name: "mqtt enabled without broker",
			cfg: config.AppConfig{
				MQTT: config.MQTTConfig{Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "mqtt enabled with broker",
			cfg: config.AppConfig{
				MQTT: config.MQTTConfig{
					Enabled:        true,
					BrokerURL:      "tcp://broker:1883",
					ConnectTimeout: 10 * time.Second,
				},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
