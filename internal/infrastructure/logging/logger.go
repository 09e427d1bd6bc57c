package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger interface used by every component of the switcher
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// DefaultLogger writes structured JSON lines through zerolog
type DefaultLogger struct {
	zl zerolog.Logger
}

// NewDefaultLogger creates a logger writing JSON lines to stderr
func NewDefaultLogger() Logger {
	return NewLogger(os.Stderr, false)
}

// NewLogger creates a logger writing to w. With pretty set, entries are
// rendered by zerolog's console writer instead of raw JSON.
func NewLogger(w io.Writer, pretty bool) *DefaultLogger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	return &DefaultLogger{
		zl: zerolog.New(w).With().Timestamp().Logger(),
	}
}

// WithComponent returns a logger that tags every entry with component
func (l *DefaultLogger) WithComponent(component string) Logger {
	return &DefaultLogger{zl: l.zl.With().Str("component", component).Logger()}
}

// ParseLevel maps a configured level name onto a zerolog level, falling back
// to info for anything unrecognised.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetLevel changes the process-wide minimum level
func SetLevel(level string) {
	zerolog.SetGlobalLevel(ParseLevel(level))
}

// fieldsToMap converts the variadic fields slice to a map
// Expected format: key1, value1, key2, value2, ...
func fieldsToMap(fields []interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(fields)/2)

	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			result[fmt.Sprintf("field_%d", i/2)] = fields[i]
			continue
		}
		if key, ok := fields[i].(string); ok {
			result[key] = fields[i+1]
		} else {
			result[fmt.Sprintf("field_%d", i/2)] = fields[i]
			result[fmt.Sprintf("field_%d_value", i/2)] = fields[i+1]
		}
	}

	return result
}

func (l *DefaultLogger) write(ev *zerolog.Event, msg string, fields []interface{}) {
	if len(fields) > 0 {
		ev = ev.Fields(fieldsToMap(fields))
	}
	ev.Msg(msg)
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.write(l.zl.Debug(), msg, fields)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.write(l.zl.Info(), msg, fields)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.write(l.zl.Warn(), msg, fields)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.write(l.zl.Error(), msg, fields)
}

// CodedError is the subset of the operation error API the logger needs.
// Declared here to keep the errors package free to import logging.
type CodedError interface {
	Error() string
	GetCode() string
	IsRetryable() bool
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogError logs err with its classification and context
func LogError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{"operation", operation}

	if coded, ok := err.(CodedError); ok {
		fields = append(fields,
			"error_code", coded.GetCode(),
			"retryable", coded.IsRetryable(),
			"timestamp", coded.GetTimestamp(),
		)
		for k, v := range coded.GetContext() {
			fields = append(fields, k, v)
		}
	} else {
		fields = append(fields, "error_type", fmt.Sprintf("%T", err))
	}

	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Error(fmt.Sprintf("Window operation failed: %s", err.Error()), fields...)
}

// LogOperation logs a completed operation with its duration
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}

	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Debug(fmt.Sprintf("Window operation completed: %s", operation), fields...)
}
