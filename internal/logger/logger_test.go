package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"cphorme/internal/config"
	"cphorme/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Production(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{
		Server:    config.ServerConfig{Environment: config.EnvironmentProduction},
		Telemetry: config.TelemetryConfig{ServiceName: "cphorme-portal", ServiceVersion: "1.0.0"},
	}

	log := logger.NewWithWriter(cfg, &buf)
	log.Debug("hidden")
	log.Info("Patient saved", "patient_id", "p1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Patient saved", record["msg"])
	assert.Equal(t, "p1", record["patient_id"])
	assert.Equal(t, "cphorme-portal", record["service"])
}

func TestNew_Development(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{Server: config.ServerConfig{Environment: config.EnvironmentDevelopment}}

	logger.NewWithWriter(cfg, &buf).Debug("Loading reports", "count", 3)
	assert.Contains(t, buf.String(), "msg=\"Loading reports\"")
	assert.Contains(t, buf.String(), "count=3")
}

func TestMultiHandler(t *testing.T) {
	var info, errs bytes.Buffer
	handler := logger.NewMultiHandler(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(handler).With("request_id", "abc")

	log.Info("Rendering dashboard")
	log.Error("Failed to load reports")

	assert.Contains(t, info.String(), "Rendering dashboard")
	assert.Contains(t, info.String(), "Failed to load reports")
	assert.NotContains(t, errs.String(), "Rendering dashboard")
	assert.Contains(t, errs.String(), "request_id=abc")

	assert.False(t, handler.Enabled(context.Background(), slog.LevelDebug))
}
