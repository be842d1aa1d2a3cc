// Package main is the entry point for the field logger. It loads the
// descriptor, resolves the device driver, connects the Modbus link and runs
// the poll scheduler until a signal arrives or a cycle hard-fails.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/nexus-edge/field-logger/internal/adapter/config"
	"github.com/nexus-edge/field-logger/internal/adapter/modbus"
	"github.com/nexus-edge/field-logger/internal/driver"
	"github.com/nexus-edge/field-logger/internal/health"
	"github.com/nexus-edge/field-logger/internal/housekeep"
	"github.com/nexus-edge/field-logger/internal/metrics"
	"github.com/nexus-edge/field-logger/internal/publish"
	"github.com/nexus-edge/field-logger/internal/service"
	"github.com/nexus-edge/field-logger/internal/sink"
	"github.com/nexus-edge/field-logger/pkg/logging"
)

const (
	serviceName    = "field-logger"
	serviceVersion = "1.0.0"
)

func main() {
	os.Exit(run())
}

func run() int {
	descriptorPath := flag.String("descriptor", "logger.yaml", "path to the logger descriptor file")
	flag.Parse()

	appCfg, err := config.LoadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	desc, err := config.LoadDescriptor(*descriptorPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "descriptor error: %v\n", err)
		return 1
	}

	logger, fileWriter := logging.New(serviceName, serviceVersion, logging.LogConfig{
		Level:   appCfg.Logging.Level,
		Format:  appCfg.Logging.Format,
		LogDir:  desc.LogDir,
		NoColor: appCfg.Logging.NoColor,
	})
	if fileWriter != nil {
		defer fileWriter.Close()
	}
	logger.Info().
		Str("descriptor", *descriptorPath).
		Str("device_type", desc.Device.TypeName).
		Msg("Starting field logger")

	// Resolve the driver before touching the transport: an unknown device
	// type must fail without a single bus read.
	drv, err := driver.Default().Resolve(desc.Device)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve device driver")
		return 1
	}

	if err := sink.ValidateHeader(desc.Header, drv.FieldNames()); err != nil {
		logger.Error().Err(err).Msg("Header validation failed")
		return 1
	}

	metricsRegistry := metrics.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transport, err := modbus.New(desc.Transport, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create Modbus transport")
		return 1
	}
	if err := transport.Connect(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to open Modbus link")
		return 1
	}
	metricsRegistry.SetLinkConnected(true)

	csvSink := sink.NewCSV(desc.BaseFolder, desc.FileSuffix, desc.Header, logger)

	var mirror *publish.Mirror
	if appCfg.MQTT.Enabled {
		mirror = publish.NewMirror(publish.Config{
			BrokerURL:      appCfg.MQTT.BrokerURL,
			ClientID:       appCfg.MQTT.ClientID,
			Username:       appCfg.MQTT.Username,
			Password:       appCfg.MQTT.Password,
			TopicPrefix:    appCfg.MQTT.TopicPrefix,
			QoS:            appCfg.MQTT.QoS,
			ConnectTimeout: appCfg.MQTT.ConnectTimeout,
			PublishTimeout: appCfg.MQTT.PublishTimeout,
		}, desc.Device.TypeName, logger, metricsRegistry)
		if err := mirror.Connect(ctx); err != nil {
			// The CSV file is the system of record; run without the mirror.
			logger.Warn().Err(err).Msg("Mirror broker unavailable, continuing without it")
		}
		defer mirror.Disconnect()
	}

	if appCfg.Metrics.Enabled {
		startMetricsServer(ctx, appCfg.Metrics.Port, transport, mirror, logger)
	}

	housekeeper := housekeep.New(fileWriter, desc.RetentionDays, []string{desc.BaseFolder}, logger)

	cycle := service.NewCycle(desc.Device, drv, transport, desc.Retry, logger, metricsRegistry)

	scheduler := service.NewScheduler(service.SchedulerConfig{
		Cycle:       cycle,
		Sink:        csvSink,
		Mirror:      mirrorSink(mirror),
		Transport:   transport,
		Interval:    desc.Interval,
		Housekeeper: housekeeper,
	}, logger, metricsRegistry)

	err = scheduler.Run(ctx)
	metricsRegistry.SetLinkConnected(false)
	if err != nil {
		logger.Error().Err(err).Msg("Field logger terminated on poll failure")
		return 1
	}

	logger.Info().Msg("Field logger stopped")
	return 0
}

// mirrorSink converts a possibly-nil mirror into the scheduler's optional
// sink. A typed nil inside a non-nil interface would defeat the scheduler's
// nil check.
func mirrorSink(m *publish.Mirror) service.RecordSink {
	if m == nil {
		return nil
	}
	return m
}

// startMetricsServer serves Prometheus metrics and health endpoints in the
// background. Shutdown rides on context cancellation; the scheduler owns
// the process lifetime.
func startMetricsServer(ctx context.Context, port int, transport *modbus.Transport, mirror *publish.Mirror, logger zerolog.Logger) {
	healthChecker := health.NewChecker(health.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
	})
	healthChecker.AddCheck("modbus", transport)
	if mirror != nil {
		healthChecker.AddCheck("mqtt_mirror", mirror)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthChecker.Handler)
	mux.HandleFunc("/health/live", healthChecker.LivenessHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", port).Msg("Starting metrics server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
