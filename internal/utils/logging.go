package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Component names the part of hexdance a log line comes from. It is
// written as the "component" field.
type Component string

const (
	ComponentCLI      Component = "cli"
	ComponentConfig   Component = "config"
	ComponentAnalyzer Component = "analyzer"
	ComponentBatch    Component = "batch"
	ComponentInput    Component = "input"
)

const logTimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Logger wraps logrus.Logger with hexdance's field conventions.
type Logger struct {
	*logrus.Logger
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level  LogLevel
	Format LogFormat
	// Output defaults to stderr; stdout carries only reports.
	Output io.Writer
}

// NewLogger creates a new logger with the given configuration. An unknown
// level falls back to info.
func NewLogger(config LoggerConfig) *Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(string(config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.Format == LogFormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: logTimestampFormat})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: logTimestampFormat})
	}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	return &Logger{Logger: logger}
}

// NewLoggerFromConfig builds the logger described by the log_level and
// log_format settings of cfg, writing to out.
func NewLoggerFromConfig(cfg *Config, out io.Writer) (*Logger, error) {
	level, err := ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return NewLogger(LoggerConfig{
		Level:  level,
		Format: ParseLogFormat(cfg.LogFormat),
		Output: out,
	}), nil
}

// NewDefaultLogger creates an info-level text logger on stderr.
func NewDefaultLogger() *Logger {
	return NewLogger(LoggerConfig{Level: LogLevelInfo, Format: LogFormatText})
}

// NewNopLogger returns a logger that discards everything. Library entry
// points use it when the caller did not supply one.
func NewNopLogger() *Logger {
	return NewLogger(LoggerConfig{Level: LogLevelError, Output: io.Discard})
}

// WithComponent tags entries with the component they come from.
func (l *Logger) WithComponent(c Component) *logrus.Entry {
	return l.WithField("component", string(c))
}

// WithFile returns an input entry for messages about one file.
func (l *Logger) WithFile(path string) *logrus.Entry {
	return l.WithFields(logrus.Fields{"component": string(ComponentInput), "file": path})
}

// ParseLogLevel parses a log level name. Empty means info; unknown names
// are an error.
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// ParseLogFormat parses a log format name; anything but json is text.
func ParseLogFormat(format string) LogFormat {
	if strings.EqualFold(format, string(LogFormatJSON)) {
		return LogFormatJSON
	}
	return LogFormatText
}

type loggerKey struct{}

// WithLogger attaches logger to ctx for the batch runner.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFromContext returns the logger attached by WithLogger, or nil.
func LoggerFromContext(ctx context.Context) *Logger {
	logger, _ := ctx.Value(loggerKey{}).(*Logger)
	return logger
}
