package estimation

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("invalid estimation config")
	ErrNotReady      = errors.New("run has pending metrics")
	ErrComputePanic  = errors.New("metric compute panicked")
)

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// MetricComputeError reports a reveal callback that failed. The metric stays
// pending and is retried on the next tick.
type MetricComputeError struct {
	RunID    string
	Metric   string
	Progress int
	Err      error
}

func (e *MetricComputeError) Error() string {
	return fmt.Sprintf("run %s: computing %q at %d%%: %v", e.RunID, e.Metric, e.Progress, e.Err)
}

func (e *MetricComputeError) Unwrap() error { return e.Err }
