package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	buffer, cleanup := CaptureLog(t, LogLevelInfo)
	defer cleanup()

	Debug("This should not appear")
	Info("This should appear")
	Warn("This warning should appear")
	Error("This error should appear")

	logs := buffer.String()

	if strings.Contains(logs, "This should not appear") {
		t.Error("Debug log appeared when log level was Info")
	}
	AssertLogContains(t, logs, "[INFO] This should appear")
	AssertLogContains(t, logs, "[WARN] This warning should appear")
	AssertLogContains(t, logs, "[ERROR] This error should appear")
}

func TestQuietTest(t *testing.T) {
	buffer, cleanup := CaptureLog(t, LogLevelDebug)
	defer cleanup()

	restore := QuietTest(t)
	Error("silenced")
	restore()
	Error("audible")

	logs := buffer.String()
	if strings.Contains(logs, "silenced") {
		t.Error("log emitted while quiet")
	}
	AssertLogContains(t, logs, "audible")
}

func TestWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, LogLevelDebug).WithPrefix("run abc")
	l.Debug("tick %d", 3)
	AssertLogContains(t, buf.String(), "[DEBUG] run abc: tick 3")
}

func TestPrefixedLoggerFollowsParentLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(&buf, LogLevelInfo)
	child := parent.WithPrefix("run abc").WithPrefix("metric")

	child.Debug("hidden")
	parent.SetLevel(LogLevelDebug)
	child.Debug("shown")
	assert.Equal(t, LogLevelDebug, child.GetLevel())

	child.SetLevel(LogLevelError)
	parent.Warn("dropped")

	logs := buf.String()
	assert.NotContains(t, logs, "hidden")
	assert.NotContains(t, logs, "dropped")
	AssertLogContains(t, logs, "[DEBUG] run abc metric: shown")
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		hasError bool
	}{
		{"DEBUG", LogLevelDebug, false},
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"WARN", LogLevelWarn, false},
		{"WARNING", LogLevelWarn, false},
		{"ERROR", LogLevelError, false},
		{"OFF", LogLevelOff, false},
		{"NONE", LogLevelOff, false},
		{"INVALID", LogLevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLogLevel(tt.input)
			if tt.hasError && err == nil {
				t.Errorf("Expected error for input %s", tt.input)
			}
			if !tt.hasError && err != nil {
				t.Errorf("Unexpected error for input %s: %v", tt.input, err)
			}
			if level != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, level)
			}
		})
	}
}
