// Package publish mirrors poll records to an MQTT broker. The mirror is a
// best-effort secondary sink: the CSV file remains the system of record and
// broker trouble never interferes with polling.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/nexus-edge/field-logger/internal/domain"
	"github.com/nexus-edge/field-logger/internal/metrics"
)

// Config holds MQTT mirror configuration.
type Config struct {
	BrokerURL      string
	ClientID       string
	Username       string
	Password       string
	TopicPrefix    string
	QoS            byte
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BrokerURL:      "tcp://localhost:1883",
		ClientID:       "field-logger",
		TopicPrefix:    "fieldlogger",
		QoS:            1,
		KeepAlive:      30 * time.Second,
		ConnectTimeout: 10 * time.Second,
		PublishTimeout: 5 * time.Second,
	}
}

// recordPayload is the JSON shape published per record.
type recordPayload struct {
	Timestamp string                 `json:"timestamp"`
	UnitID    uint8                  `json:"unit_id"`
	Status    string                 `json:"status"`
	Fields    map[string]interface{} `json:"fields"`
}

// Mirror publishes records to an MQTT broker. A circuit breaker around the
// publish path stops the scheduler from stalling on a dead broker: when the
// breaker is open, records are dropped with a warning.
type Mirror struct {
	config     Config
	deviceType string
	client     pahomqtt.Client
	breaker    *gobreaker.CircuitBreaker
	logger     zerolog.Logger
	metrics    *metrics.Registry
	connected  atomic.Bool

	published atomic.Uint64
	failed    atomic.Uint64
}

// NewMirror creates a mirror publisher for one device family.
func NewMirror(config Config, deviceType string, logger zerolog.Logger, metricsReg *metrics.Registry) *Mirror {
	if config.QoS > 2 {
		config.QoS = 1
	}
	if config.KeepAlive == 0 {
		config.KeepAlive = 30 * time.Second
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.PublishTimeout == 0 {
		config.PublishTimeout = 5 * time.Second
	}

	m := &Mirror{
		config:     config,
		deviceType: deviceType,
		logger:     logger.With().Str("component", "mqtt-mirror").Logger(),
		metrics:    metricsReg,
	}

	m.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        fmt.Sprintf("mqtt-%s", deviceType),
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			m.logger.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Mirror circuit breaker state changed")
		},
	})

	return m
}

// Connect establishes the broker connection. The paho client reconnects on
// its own afterwards.
func (m *Mirror) Connect(ctx context.Context) error {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(m.config.BrokerURL)
	opts.SetClientID(m.config.ClientID)
	opts.SetCleanSession(true)
	opts.SetKeepAlive(m.config.KeepAlive)
	opts.SetConnectTimeout(m.config.ConnectTimeout)
	opts.SetAutoReconnect(true)

	if m.config.Username != "" {
		opts.SetUsername(m.config.Username)
		opts.SetPassword(m.config.Password)
	}

	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		m.connected.Store(true)
		m.logger.Info().Msg("Mirror broker connection established")
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		m.connected.Store(false)
		m.logger.Warn().Err(err).Msg("Mirror broker connection lost")
	})

	m.client = pahomqtt.NewClient(opts)

	m.logger.Info().Str("broker", m.config.BrokerURL).Msg("Connecting to mirror broker")
	token := m.client.Connect()

	connectDone := make(chan bool, 1)
	go func() {
		connectDone <- token.WaitTimeout(m.config.ConnectTimeout)
	}()

	select {
	case success := <-connectDone:
		if !success {
			return fmt.Errorf("%w: connection timeout", domain.ErrMirrorConnectionFailed)
		}
		if token.Error() != nil {
			return fmt.Errorf("%w: %v", domain.ErrMirrorConnectionFailed, token.Error())
		}
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrMirrorConnectionFailed, ctx.Err())
	}

	m.connected.Store(true)
	return nil
}

// Disconnect closes the broker connection, waiting briefly for in-flight
// messages.
func (m *Mirror) Disconnect() {
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(1000)
	}
	m.connected.Store(false)
	m.logger.Info().Msg("Disconnected from mirror broker")
}

// Append publishes one cycle's records. Implements the scheduler's record
// sink contract. Returns the last publish error; partial publication is
// acceptable for the mirror.
func (m *Mirror) Append(records []domain.Record) error {
	if m.client == nil {
		return domain.ErrMirrorNotConnected
	}

	var lastErr error
	for i := range records {
		if err := m.publishRecord(&records[i]); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (m *Mirror) publishRecord(rec *domain.Record) error {
	payload, err := marshalRecord(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMirrorPublishFailed, err)
	}

	topic := fmt.Sprintf("%s/%s/%d", m.config.TopicPrefix, m.deviceType, rec.UnitID)

	start := time.Now()
	_, err = m.breaker.Execute(func() (interface{}, error) {
		token := m.client.Publish(topic, m.config.QoS, false, payload)
		if !token.WaitTimeout(m.config.PublishTimeout) {
			return nil, fmt.Errorf("%w: publish timeout", domain.ErrMirrorPublishFailed)
		}
		if token.Error() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMirrorPublishFailed, token.Error())
		}
		return nil, nil
	})
	latency := time.Since(start).Seconds()

	if err != nil {
		m.failed.Add(1)
		if m.metrics != nil {
			m.metrics.RecordMQTTPublish(false, latency)
		}
		if err == gobreaker.ErrOpenState {
			return fmt.Errorf("%w: circuit open", domain.ErrMirrorUnavailable)
		}
		return err
	}

	m.published.Add(1)
	if m.metrics != nil {
		m.metrics.RecordMQTTPublish(true, latency)
	}
	return nil
}

func marshalRecord(rec *domain.Record) ([]byte, error) {
	fields := make(map[string]interface{}, len(rec.Fields))
	for _, f := range rec.Fields {
		fields[f.Name] = f.Value
	}
	return json.Marshal(recordPayload{
		Timestamp: rec.Timestamp.Format(time.RFC3339),
		UnitID:    rec.UnitID,
		Status:    string(rec.Status),
		Fields:    fields,
	})
}

// IsConnected reports whether the broker connection is up.
func (m *Mirror) IsConnected() bool {
	return m.connected.Load()
}

// HealthCheck implements the health checker contract.
func (m *Mirror) HealthCheck(ctx context.Context) error {
	if !m.connected.Load() {
		return domain.ErrMirrorNotConnected
	}
	return nil
}

// Stats returns published and failed message counts.
func (m *Mirror) Stats() (published, failed uint64) {
	return m.published.Load(), m.failed.Load()
}
