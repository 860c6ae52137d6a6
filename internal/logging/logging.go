// Package logging wraps charmbracelet/log into the small logger shape used
// across the control-node engine and the client executor.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	cblog "github.com/charmbracelet/log"
)

// Options configures a Logger at creation time.
type Options struct {
	Writer        io.Writer
	Level         string
	HumanReadable bool
	Layer         string
	Component     string
}

// Logger is a thin, leveled, field-carrying wrapper around charmbracelet/log.
type Logger struct {
	base   *cblog.Logger
	fields []interface{}
}

// New builds a Logger. Layer distinguishes "engine" (control node) from
// "client" (managed node) log lines; Component further scopes a package.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := cblog.InfoLevel
	if opts.Level != "" {
		parsed, err := cblog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	logOpts := cblog.Options{
		Level:           level,
		ReportTimestamp: true,
	}
	if !opts.HumanReadable {
		logOpts.Formatter = cblog.JSONFormatter
	}

	base := cblog.NewWithOptions(writer, logOpts)

	var fields []interface{}
	if opts.Layer != "" {
		fields = append(fields, "layer", opts.Layer)
	}
	if opts.Component != "" {
		fields = append(fields, "component", opts.Component)
	}

	return &Logger{base: base, fields: fields}, nil
}

// With derives a logger that always includes the supplied key/value pairs.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	if l == nil {
		return nil
	}
	next := make([]interface{}, 0, len(l.fields)+len(keyvals))
	next = append(next, l.fields...)
	next = append(next, keyvals...)
	return &Logger{base: l.base, fields: next}
}

// Debug writes a debug-level entry, tagged with ctx's correlation ID if any.
func (l *Logger) Debug(ctx context.Context, msg string, keyvals ...interface{}) {
	l.log(ctx, cblog.DebugLevel, msg, keyvals...)
}

// Info writes an info-level entry, tagged with ctx's correlation ID if any.
func (l *Logger) Info(ctx context.Context, msg string, keyvals ...interface{}) {
	l.log(ctx, cblog.InfoLevel, msg, keyvals...)
}

// Warn writes a warning-level entry, tagged with ctx's correlation ID if any.
func (l *Logger) Warn(ctx context.Context, msg string, keyvals ...interface{}) {
	l.log(ctx, cblog.WarnLevel, msg, keyvals...)
}

// Error writes an error-level entry. err is attached as the "error" field.
func (l *Logger) Error(ctx context.Context, err error, msg string, keyvals ...interface{}) {
	if err != nil {
		keyvals = append(keyvals, "error", err)
	}
	l.log(ctx, cblog.ErrorLevel, msg, keyvals...)
}

func (l *Logger) log(ctx context.Context, level cblog.Level, msg string, keyvals ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	payload := make([]interface{}, 0, len(l.fields)+len(keyvals)+2)
	payload = append(payload, l.fields...)
	if id := CorrelationID(ctx); id != "" {
		payload = append(payload, "correlation_id", id)
	}
	payload = append(payload, keyvals...)

	switch level {
	case cblog.DebugLevel:
		l.base.Debug(msg, payload...)
	case cblog.WarnLevel:
		l.base.Warn(msg, payload...)
	case cblog.ErrorLevel:
		l.base.Error(msg, payload...)
	default:
		l.base.Info(msg, payload...)
	}
}

type correlationKey struct{}

// WithCorrelationID attaches a run identifier to ctx for log correlation
// across a single plan run's goroutines.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID retrieves a previously attached run identifier, or "".
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// GenerateCorrelationID creates a new run identifier suitable for tagging
// every log line a single `sira run` invocation emits, grounded on the
// teacher's cmd/streamy entry point generating one id per process and
// threading it through context (crypto/rand, not math/rand, since this
// value has no need to be reproducible).
func GenerateCorrelationID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate correlation id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
