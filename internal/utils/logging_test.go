package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config LoggerConfig
		want   logrus.Level
	}{
		{"debug level", LoggerConfig{Level: LogLevelDebug, Format: LogFormatText}, logrus.DebugLevel},
		{"info level", LoggerConfig{Level: LogLevelInfo, Format: LogFormatText}, logrus.InfoLevel},
		{"warn level", LoggerConfig{Level: LogLevelWarn, Format: LogFormatText}, logrus.WarnLevel},
		{"error level", LoggerConfig{Level: LogLevelError, Format: LogFormatText}, logrus.ErrorLevel},
		{"unknown level", LoggerConfig{Level: "chatty"}, logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewLogger(tt.config).GetLevel())
		})
	}
}

func TestLoggerFormats(t *testing.T) {
	tests := []struct {
		name   string
		format LogFormat
		want   string
	}{
		{"text format", LogFormatText, "level=info"},
		{"json format", LogFormatJSON, `"level":"info"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(LoggerConfig{Level: LogLevelInfo, Format: tt.format, Output: &buf})
			logger.Info("test message")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestLoggerWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelInfo, Format: LogFormatJSON, Output: &buf})

	logger.WithComponent(ComponentAnalyzer).WithField("path", "a.bin").Info("classified")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "analyzer", entry["component"])
	assert.Equal(t, "a.bin", entry["path"])
	assert.Equal(t, "classified", entry["msg"])
	assert.Contains(t, entry, "time")
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	assert.NotPanics(t, func() { logger.Error("dropped") })
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"DEBUG", LogLevelDebug, false},
		{"info", LogLevelInfo, false},
		{"warn", LogLevelWarn, false},
		{"warning", LogLevelWarn, false},
		{"ERROR", LogLevelError, false},
		{"", LogLevelInfo, false},
		{"invalid", LogLevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestParseLogFormat(t *testing.T) {
	assert.Equal(t, LogFormatJSON, ParseLogFormat("JSON"))
	assert.Equal(t, LogFormatText, ParseLogFormat("text"))
	assert.Equal(t, LogFormatText, ParseLogFormat("invalid"))
}

func TestLoggerContext(t *testing.T) {
	logger := NewNopLogger()
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, LoggerFromContext(ctx))
	assert.Nil(t, LoggerFromContext(context.Background()))
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
	assert.Contains(t, GetVersionString(), Version)
}

func TestLoggerWithFile(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelDebug, Format: LogFormatText, Output: &buf})

	logger.WithFile("/tmp/a.bin").Debug("read")
	assert.Contains(t, buf.String(), "component=input")
	assert.Contains(t, buf.String(), "file=/tmp/a.bin")
}

func TestNewLoggerFromConfig(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerFromConfig(&Config{LogLevel: "DEBUG", LogFormat: "json"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithComponent(ComponentBatch).Debug("done")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "batch", entry["component"])

	_, err = NewLoggerFromConfig(&Config{LogLevel: "loud"}, &buf)
	assert.Error(t, err)
}
