package estimation

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle phase of a run.
type Status int

const (
	StatusRunning Status = iota
	StatusComplete
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusComplete:
		return "complete"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Reveal is the disclosure state of one metric. The zero value is Pending.
type Reveal struct {
	Resolved   bool
	Value      float64
	AtProgress int // progress of the tick that resolved it
}

// Pending is the unresolved Reveal.
var Pending = Reveal{}

func (r Reveal) String() string {
	if !r.Resolved {
		return "pending"
	}
	return fmt.Sprintf("%g", r.Value)
}

// State is a read-only snapshot of a run after a fully applied tick.
type State struct {
	RunID         string
	Progress      int
	StageLabel    string
	Revealed      map[string]Reveal
	Order         []string // metric names in threshold order
	Status        Status
	Ticks         int
	FailedReveals int
	UpdatedAt     time.Time
}

// MetricValue is one resolved metric in a Result.
type MetricValue struct {
	Name  string
	Value float64
}

// Result is the finalized record of a run, in metric order.
type Result struct {
	RunID  string
	Values []MetricValue
}

// Value looks a metric up by name.
func (r Result) Value(name string) (float64, bool) {
	for _, mv := range r.Values {
		if mv.Name == name {
			return mv.Value, true
		}
	}
	return 0, false
}

func (s State) clone() State {
	out := s
	out.Revealed = make(map[string]Reveal, len(s.Revealed))
	for k, v := range s.Revealed {
		out.Revealed[k] = v
	}
	out.Order = append([]string(nil), s.Order...)
	return out
}

// Finished reports whether the run will never tick again.
func (s State) Finished() bool {
	return s.Status != StatusRunning
}

// Pending returns the names of unresolved metrics in metric order.
func (s State) Pending() []string {
	var out []string
	for _, name := range s.Order {
		if !s.Revealed[name].Resolved {
			out = append(out, name)
		}
	}
	return out
}

// Ready reports whether every metric has been resolved.
func (s State) Ready() bool {
	return len(s.Pending()) == 0
}

// Result returns the resolved metrics, or ErrNotReady naming the ones still
// pending.
func (s State) Result() (Result, error) {
	if pending := s.Pending(); len(pending) > 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrNotReady, strings.Join(pending, ", "))
	}
	res := Result{RunID: s.RunID, Values: make([]MetricValue, 0, len(s.Order))}
	for _, name := range s.Order {
		res.Values = append(res.Values, MetricValue{Name: name, Value: s.Revealed[name].Value})
	}
	return res, nil
}
