// Package logx provides structured, leveled logging for the context window manager
// and its adapters.
package logx

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// Level identifies the severity of a log line.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger writes leveled lines tagged with a component name. Lines carry no
// timestamp.
type Logger struct {
	component string
	logger    *log.Logger
}

//nolint:gochecknoglobals // debug toggle mirrors this codebase's env-driven debug switch
var (
	debugMu      sync.RWMutex
	debugEnabled = strings.EqualFold(os.Getenv("CWM_DEBUG"), "1") || strings.EqualFold(os.Getenv("CWM_DEBUG"), "true")
)

// SetDebug enables or disables Debug-level output process-wide.
func SetDebug(enabled bool) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugEnabled = enabled
}

// IsDebugEnabled reports whether Debug-level output is currently enabled.
func IsDebugEnabled() bool {
	debugMu.RLock()
	defer debugMu.RUnlock()
	return debugEnabled
}

// NewLogger returns a Logger tagged with the given component name, writing to stderr.
func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		logger:    log.New(os.Stderr, "", 0),
	}
}

func (l *Logger) line(level Level, format string, args ...any) string {
	return fmt.Sprintf("[%s] %s: %s", l.component, level, fmt.Sprintf(format, args...))
}

// Debug logs at debug level, gated by IsDebugEnabled.
func (l *Logger) Debug(format string, args ...any) {
	if !IsDebugEnabled() {
		return
	}
	l.logger.Println(l.line(LevelDebug, format, args...))
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...any) {
	l.logger.Println(l.line(LevelInfo, format, args...))
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...any) {
	l.logger.Println(l.line(LevelWarn, format, args...))
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...any) {
	l.logger.Println(l.line(LevelError, format, args...))
}

// Errorf logs and returns a formatted error. Use when a call site needs both
// logging and an error to return:
//
//	return logx.NewLogger("x").Errorf("setup failed: %w", err)
func (l *Logger) Errorf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	l.Error("%s", err.Error())
	return err
}

// Wrap logs err wrapped with msg and returns the wrapped error, or nil if err is nil.
func (l *Logger) Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s: %w", msg, err)
	l.Error("%s", wrapped.Error())
	return wrapped
}

// Noop returns a Logger that discards everything above the standard
// log.Logger's own writer, useful for tests that don't want stderr noise
// but still want to exercise the logging call sites.
func Noop() *Logger {
	return &Logger{component: "noop", logger: log.New(discard{}, "", 0)}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
