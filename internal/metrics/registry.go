// Package metrics provides Prometheus metrics for the field logger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all Prometheus metrics for the service.
type Registry struct {
	// Polling metrics
	CyclesTotal   prometheus.Counter
	CycleDuration prometheus.Histogram
	UnitReads     *prometheus.CounterVec
	ReadAttempts  prometheus.Counter
	RowsWritten   prometheus.Counter

	// Transport metrics
	LinkConnected prometheus.Gauge

	// MQTT mirror metrics
	MQTTMessagesPublished prometheus.Counter
	MQTTMessagesFailed    prometheus.Counter
	MQTTPublishLatency    prometheus.Histogram
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	return &Registry{
		CyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldlogger",
			Subsystem: "polling",
			Name:      "cycles_total",
			Help:      "Total number of completed poll cycles",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fieldlogger",
			Subsystem: "polling",
			Name:      "cycle_duration_seconds",
			Help:      "Poll cycle duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		UnitReads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldlogger",
			Subsystem: "polling",
			Name:      "unit_reads_total",
			Help:      "Per-unit read outcomes by record status",
		}, []string{"status"}),
		ReadAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldlogger",
			Subsystem: "modbus",
			Name:      "read_attempts_total",
			Help:      "Total transport read attempts, retries included",
		}),
		RowsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldlogger",
			Subsystem: "sink",
			Name:      "rows_written_total",
			Help:      "Total rows appended to the output sink",
		}),
		LinkConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "fieldlogger",
			Subsystem: "modbus",
			Name:      "link_connected",
			Help:      "Whether the Modbus link is connected (0 or 1)",
		}),
		MQTTMessagesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldlogger",
			Subsystem: "mqtt",
			Name:      "messages_published_total",
			Help:      "Total number of MQTT messages published",
		}),
		MQTTMessagesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldlogger",
			Subsystem: "mqtt",
			Name:      "messages_failed_total",
			Help:      "Total number of failed MQTT publishes",
		}),
		MQTTPublishLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fieldlogger",
			Subsystem: "mqtt",
			Name:      "publish_latency_seconds",
			Help:      "MQTT publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
	}
}

// RecordCycle records one completed poll cycle.
func (r *Registry) RecordCycle(duration float64) {
	r.CyclesTotal.Inc()
	r.CycleDuration.Observe(duration)
}

// RecordUnitRead records the outcome of one unit's read/decode pair.
func (r *Registry) RecordUnitRead(status string) {
	r.UnitReads.WithLabelValues(status).Inc()
}

// RecordReadAttempt records one transport read attempt.
func (r *Registry) RecordReadAttempt() {
	r.ReadAttempts.Inc()
}

// RecordRowsWritten records rows appended to the sink.
func (r *Registry) RecordRowsWritten(n int) {
	r.RowsWritten.Add(float64(n))
}

// SetLinkConnected updates the link state gauge.
func (r *Registry) SetLinkConnected(connected bool) {
	if connected {
		r.LinkConnected.Set(1)
	} else {
		r.LinkConnected.Set(0)
	}
}

// RecordMQTTPublish records an MQTT publish operation.
func (r *Registry) RecordMQTTPublish(success bool, latency float64) {
	if success {
		r.MQTTMessagesPublished.Inc()
	} else {
		r.MQTTMessagesFailed.Inc()
	}
	r.MQTTPublishLatency.Observe(latency)
}
