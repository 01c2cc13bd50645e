package estimation

import (
	"context"
	"time"
)

// DefaultCompleteLabel is used when Config.CompleteLabel is empty.
const DefaultCompleteLabel = "Complete"

// MaxProgress is the terminal progress value.
const MaxProgress = 100

// ComputeFunc produces the value for a metric once its threshold is reached.
type ComputeFunc func(ctx context.Context) (float64, error)

// Metric is a dependent result revealed when progress reaches Threshold.
type Metric struct {
	Name      string
	Threshold int
	Compute   ComputeFunc
}

// Band maps progress values from Lower up to the next band's Lower (or 100)
// onto a status label.
type Band struct {
	Lower int
	Label string
}

// Config describes a single estimation run.
type Config struct {
	TickInterval  time.Duration
	Increment     int
	Metrics       []Metric
	Bands         []Band
	CompleteLabel string
}

// Constant returns a ComputeFunc that always resolves to v.
func Constant(v float64) ComputeFunc {
	return func(context.Context) (float64, error) { return v, nil }
}

func (c Config) completeLabel() string {
	if c.CompleteLabel == "" {
		return DefaultCompleteLabel
	}
	return c.CompleteLabel
}

// Validate checks the structural rules a run depends on: bands start at 0
// and strictly increase below 100, no band carries the complete label,
// thresholds strictly increase within [0, 100] and metric names are unique.
func Validate(c Config) error {
	if c.Increment < 1 || c.Increment > MaxProgress {
		return invalidConfig("increment %d outside [1,%d]", c.Increment, MaxProgress)
	}
	if c.TickInterval < 0 {
		return invalidConfig("negative tick interval %s", c.TickInterval)
	}

	if len(c.Bands) == 0 {
		return invalidConfig("no stage bands")
	}
	if c.Bands[0].Lower != 0 {
		return invalidConfig("first band starts at %d, want 0", c.Bands[0].Lower)
	}
	for i, b := range c.Bands {
		if b.Label == "" {
			return invalidConfig("band %d has no label", i)
		}
		if b.Lower >= MaxProgress {
			return invalidConfig("band %q starts at %d, bands must end below %d", b.Label, b.Lower, MaxProgress)
		}
		if i > 0 && b.Lower <= c.Bands[i-1].Lower {
			return invalidConfig("band %q lower bound %d not above previous %d", b.Label, b.Lower, c.Bands[i-1].Lower)
		}
		if b.Label == c.completeLabel() {
			return invalidConfig("band %q reuses the complete label", b.Label)
		}
	}

	seen := make(map[string]bool, len(c.Metrics))
	for i, m := range c.Metrics {
		if m.Name == "" {
			return invalidConfig("metric %d has no name", i)
		}
		if seen[m.Name] {
			return invalidConfig("duplicate metric %q", m.Name)
		}
		seen[m.Name] = true
		if m.Compute == nil {
			return invalidConfig("metric %q has no compute function", m.Name)
		}
		if m.Threshold < 0 || m.Threshold > MaxProgress {
			return invalidConfig("metric %q threshold %d outside [0,%d]", m.Name, m.Threshold, MaxProgress)
		}
		if i > 0 && m.Threshold <= c.Metrics[i-1].Threshold {
			return invalidConfig("metric %q threshold %d not above %q threshold %d",
				m.Name, m.Threshold, c.Metrics[i-1].Name, c.Metrics[i-1].Threshold)
		}
	}
	return nil
}

// StageFor returns the label of the band containing progress p. At 100 the
// complete label is returned.
func StageFor(bands []Band, complete string, p int) string {
	if p >= MaxProgress {
		if complete == "" {
			return DefaultCompleteLabel
		}
		return complete
	}
	label := ""
	for _, b := range bands {
		if b.Lower > p {
			break
		}
		label = b.Label
	}
	return label
}
