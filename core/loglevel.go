package core

import (
	"context"
	"fmt"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// LogLevel ranks verbosity; messages below the configured level never reach
// the underlying logger.
type LogLevel int

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

func ParseLogLevel(raw string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	}
	return 0, fmt.Errorf("core: unknown log level %q", raw)
}

// NewLevelLogger wraps inner so only messages at or above level pass
// through. Context and field decoration stay on the wrapped logger, so the
// filter survives WithContext/WithFields chains.
func NewLevelLogger(inner Logger, level LogLevel) Logger {
	if inner == nil {
		inner = glog.Nop()
	}
	return &levelLogger{inner: inner, level: level}
}

// ResolveLeveledLogger builds the process logger honoring the configured
// verbosity. An empty level falls back to the config default.
func ResolveLeveledLogger(name string, rawLevel string) (LoggerProvider, Logger, error) {
	level := LevelWarning
	if strings.TrimSpace(rawLevel) != "" {
		parsed, err := ParseLogLevel(rawLevel)
		if err != nil {
			return nil, nil, err
		}
		level = parsed
	}
	_, base := glog.Resolve(name, nil, nil)
	leveled := NewLevelLogger(base, level)
	return glog.ProviderFromLogger(leveled), leveled, nil
}

type levelLogger struct {
	inner Logger
	level LogLevel
}

func (l *levelLogger) Trace(msg string, args ...any) {
	if l.level <= LevelTrace {
		l.inner.Trace(msg, args...)
	}
}

func (l *levelLogger) Debug(msg string, args ...any) {
	if l.level <= LevelDebug {
		l.inner.Debug(msg, args...)
	}
}

func (l *levelLogger) Info(msg string, args ...any) {
	if l.level <= LevelInfo {
		l.inner.Info(msg, args...)
	}
}

func (l *levelLogger) Warn(msg string, args ...any) {
	if l.level <= LevelWarning {
		l.inner.Warn(msg, args...)
	}
}

func (l *levelLogger) Error(msg string, args ...any) {
	if l.level <= LevelError {
		l.inner.Error(msg, args...)
	}
}

// Fatal is never filtered: the process is about to die.
func (l *levelLogger) Fatal(msg string, args ...any) {
	l.inner.Fatal(msg, args...)
}

func (l *levelLogger) WithContext(ctx context.Context) Logger {
	return &levelLogger{inner: l.inner.WithContext(ctx), level: l.level}
}

func (l *levelLogger) WithFields(fields map[string]any) Logger {
	if fieldsLogger, ok := l.inner.(FieldsLogger); ok {
		return &levelLogger{inner: fieldsLogger.WithFields(fields), level: l.level}
	}
	return l
}

var _ Logger = (*levelLogger)(nil)
