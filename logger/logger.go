// Package logger provides structured logging for the chat orchestration
// service. It wraps logrus behind a small interface so packages depend on
// Logger, not on the logging backend.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used across the service.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)

	// With returns a child logger with preset fields.
	With(fields ...Field) Logger
}

// Field is a structured log field.
type Field struct {
	Key   string
	Value interface{}
}

// Config controls logger construction.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (text, json).
	Format string
	// Output is "stdout", "stderr", or a file path.
	Output string
}

// DefaultConfig returns the defaults used when no configuration is supplied.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text", Output: "stdout"}
}

type loggerImpl struct {
	logrus *logrus.Logger
	fields []Field
}

// New creates a logger from cfg.
func New(cfg Config) (Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	l.SetLevel(level)

	caller := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}
	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: caller,
		})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: caller,
		})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
	l.SetReportCaller(true)

	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		l.SetOutput(os.Stdout)
	case "stderr":
		l.SetOutput(os.Stderr)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Output), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		//nolint:gosec // G304: path comes from configuration, not user input
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.SetOutput(f)
	}

	return &loggerImpl{logrus: l}, nil
}

// NewDefault creates a logger with the default configuration.
func NewDefault() Logger {
	l, err := New(DefaultConfig())
	if err != nil {
		return NewNoop()
	}
	return l
}

// NewNoop returns a logger that discards everything. Useful in tests.
func NewNoop() Logger { return &noopLogger{} }

type noopLogger struct{}

func (n *noopLogger) Debug(string, ...Field)        {}
func (n *noopLogger) Info(string, ...Field)         {}
func (n *noopLogger) Warn(string, ...Field)         {}
func (n *noopLogger) Error(string, error, ...Field) {}
func (n *noopLogger) With(...Field) Logger          { return n }

func (l *loggerImpl) entry(fields []Field) *logrus.Entry {
	all := make(logrus.Fields, len(l.fields)+len(fields))
	for _, f := range l.fields {
		all[f.Key] = f.Value
	}
	for _, f := range fields {
		all[f.Key] = f.Value
	}
	return l.logrus.WithFields(all)
}

func (l *loggerImpl) Debug(msg string, fields ...Field) { l.entry(fields).Debug(msg) }
func (l *loggerImpl) Info(msg string, fields ...Field)  { l.entry(fields).Info(msg) }
func (l *loggerImpl) Warn(msg string, fields ...Field)  { l.entry(fields).Warn(msg) }

func (l *loggerImpl) Error(msg string, err error, fields ...Field) {
	e := l.entry(fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(msg)
}

func (l *loggerImpl) With(fields ...Field) Logger {
	return &loggerImpl{
		logrus: l.logrus,
		fields: append(append([]Field{}, l.fields...), fields...),
	}
}
