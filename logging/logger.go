// Package logging provides the levelled logger shared by the cropcast packages.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LogLevel represents the severity of a log message
type LogLevel int32

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelOff
)

// EnvLogLevel names the environment variable consulted at startup.
const EnvLogLevel = "CROPCAST_LOG_LEVEL"

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "OFF"}

func (l LogLevel) String() string {
	if l < LogLevelDebug || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLogLevel accepts level names case-insensitively, plus the WARNING and
// NONE aliases. Unknown names yield LogLevelInfo and an error.
func ParseLogLevel(s string) (LogLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "WARNING":
		return LogLevelWarn, nil
	case "NONE":
		return LogLevelOff, nil
	}
	for i, n := range levelNames {
		if n == name {
			return LogLevel(i), nil
		}
	}
	return LogLevelInfo, fmt.Errorf("unknown log level: %s", s)
}

// Logger is the printf-style logging surface used across packages.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// DefaultLogger writes "[LEVEL] prefix: message" lines through a log.Logger.
// Loggers derived with WithPrefix share the output and the level of the
// logger they came from, so SetLevel on any of them applies to all.
type DefaultLogger struct {
	level  *atomic.Int32
	prefix string
	out    *log.Logger
}

// NewLogger creates a root logger writing to output.
func NewLogger(output io.Writer, level LogLevel) *DefaultLogger {
	l := &DefaultLogger{
		level: new(atomic.Int32),
		out:   log.New(output, "", log.LstdFlags),
	}
	l.level.Store(int32(level))
	return l
}

// WithPrefix returns a logger that puts prefix (eg "run 3f2a") in front of
// every message. Nested prefixes are joined with a space.
func (l *DefaultLogger) WithPrefix(prefix string) *DefaultLogger {
	if l.prefix != "" {
		prefix = l.prefix + " " + prefix
	}
	return &DefaultLogger{level: l.level, prefix: prefix, out: l.out}
}

func (l *DefaultLogger) SetLevel(level LogLevel) { l.level.Store(int32(level)) }

func (l *DefaultLogger) GetLevel() LogLevel { return LogLevel(l.level.Load()) }

func (l *DefaultLogger) emit(level LogLevel, format string, args []any) {
	if level < l.GetLevel() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		l.out.Printf("[%s] %s: %s", level, l.prefix, msg)
		return
	}
	l.out.Printf("[%s] %s", level, msg)
}

func (l *DefaultLogger) Debug(format string, args ...any) { l.emit(LogLevelDebug, format, args) }
func (l *DefaultLogger) Info(format string, args ...any)  { l.emit(LogLevelInfo, format, args) }
func (l *DefaultLogger) Warn(format string, args ...any)  { l.emit(LogLevelWarn, format, args) }
func (l *DefaultLogger) Error(format string, args ...any) { l.emit(LogLevelError, format, args) }

var (
	globalMu     sync.RWMutex
	globalLogger = NewLogger(os.Stderr, LogLevelInfo)
)

// Global returns the process wide logger.
func Global() *DefaultLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

func setGlobal(l *DefaultLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// SetLogLevel changes the level of the global logger and of every logger
// derived from it.
func SetLogLevel(level LogLevel) { Global().SetLevel(level) }

func GetLogLevel() LogLevel { return Global().GetLevel() }

func Debug(format string, args ...any) { Global().Debug(format, args...) }
func Info(format string, args ...any)  { Global().Info(format, args...) }
func Warn(format string, args ...any)  { Global().Warn(format, args...) }
func Error(format string, args ...any) { Global().Error(format, args...) }

func init() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		if level, err := ParseLogLevel(v); err == nil {
			SetLogLevel(level)
		}
	}
	// test binaries stay quiet unless a test opts in
	if strings.HasSuffix(os.Args[0], ".test") {
		SetLogLevel(LogLevelError)
	}
}
