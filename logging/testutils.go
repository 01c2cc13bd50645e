package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

// QuietTest disables logging for the duration of a test
// Usage: defer QuietTest(t)()
func QuietTest(t testing.TB) func() {
	oldLevel := GetLogLevel()
	SetLogLevel(LogLevelOff)
	return func() {
		SetLogLevel(oldLevel)
	}
}

// syncBuffer guards a bytes.Buffer so scheduler goroutines can log into it
// while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CaptureLog captures global log output during test execution.
// Returns the captured output and a cleanup function
func CaptureLog(t testing.TB, level LogLevel) (interface{ String() string }, func()) {
	oldLogger := Global()
	buffer := &syncBuffer{}
	setGlobal(NewLogger(buffer, level))
	return buffer, func() {
		setGlobal(oldLogger)
	}
}

// AssertLogContains checks that logs contain expected message
func AssertLogContains(t testing.TB, logs string, expected string) {
	t.Helper()
	if !strings.Contains(logs, expected) {
		t.Errorf("Expected log message not found.\nExpected: %s\nActual logs:\n%s", expected, logs)
	}
}
