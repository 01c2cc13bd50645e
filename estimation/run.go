// Package estimation drives a simulated long-running analysis: progress
// advances on a scheduler tick, stage labels follow progress bands and
// dependent metrics are revealed once progress reaches their thresholds.
package estimation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/panyam/cropcast/logging"
)

// DefaultErrorBuffer is the capacity of a run's error channel.
const DefaultErrorBuffer = 16

type runOptions struct {
	clock     Clock
	runID     string
	errBuffer int
	observer  func(State)
	logger    logging.Logger
}

// Option customises a run.
type Option func(*runOptions)

// WithClock replaces the wall clock, eg with a manual ticker in tests.
func WithClock(c Clock) Option { return func(o *runOptions) { o.clock = c } }

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option { return func(o *runOptions) { o.runID = id } }

// WithErrorBuffer sets the error channel capacity.
func WithErrorBuffer(n int) Option { return func(o *runOptions) { o.errBuffer = n } }

// WithObserver pushes every applied state change to fn. fn runs while the
// tick is being applied and must not call Tick or Cancel on the same run.
func WithObserver(fn func(State)) Option { return func(o *runOptions) { o.observer = fn } }

// WithLogger overrides the run logger.
func WithLogger(l logging.Logger) Option { return func(o *runOptions) { o.logger = l } }

// Run is a single estimation run. Ticks are strictly sequential; Snapshot
// never blocks and only ever observes fully applied ticks.
type Run struct {
	id       string
	cfg      Config
	clock    Clock
	logger   logging.Logger
	observer func(State)

	ctx       context.Context
	cancelCtx context.CancelFunc

	// tickMu serialises ticks and cancellation. state is only touched under it.
	tickMu sync.Mutex
	state  State
	snap   atomic.Pointer[State]

	errs      chan error
	stop      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
	scheduled bool
}

// NewRun validates cfg and returns a run at progress 0 with every metric
// pending. Nothing is scheduled; the caller drives it with Tick.
func NewRun(cfg Config, opts ...Option) (*Run, error) {
	return newRun(context.Background(), cfg, opts...)
}

// Start validates cfg and begins a scheduled run ticking every
// cfg.TickInterval. Cancelling ctx cancels the run.
func Start(ctx context.Context, cfg Config, opts ...Option) (*Run, error) {
	if cfg.TickInterval <= 0 {
		return nil, invalidConfig("tick interval must be positive, got %s", cfg.TickInterval)
	}
	r, err := newRun(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	r.scheduled = true
	// The ticker is created before the goroutine so a manual clock can fire
	// as soon as Start returns.
	ticker := r.clock.NewTicker(cfg.TickInterval)
	go r.loop(ticker)
	return r, nil
}

func newRun(ctx context.Context, cfg Config, opts ...Option) (*Run, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	o := runOptions{clock: RealClock{}, errBuffer: DefaultErrorBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.New().String()
	}
	if o.logger == nil {
		o.logger = logging.Global().WithPrefix("run " + shortID(o.runID))
	}
	if o.errBuffer < 0 {
		o.errBuffer = 0
	}

	cfg.Metrics = append([]Metric(nil), cfg.Metrics...)
	cfg.Bands = append([]Band(nil), cfg.Bands...)

	r := &Run{
		id:       o.runID,
		cfg:      cfg,
		clock:    o.clock,
		logger:   o.logger,
		observer: o.observer,
		errs:     make(chan error, o.errBuffer),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	r.ctx, r.cancelCtx = context.WithCancel(ctx)

	r.state = State{
		RunID:      o.runID,
		StageLabel: StageFor(cfg.Bands, cfg.completeLabel(), 0),
		Revealed:   make(map[string]Reveal, len(cfg.Metrics)),
		Status:     StatusRunning,
		UpdatedAt:  r.clock.Now(),
	}
	for _, m := range cfg.Metrics {
		r.state.Order = append(r.state.Order, m.Name)
		r.state.Revealed[m.Name] = Pending
	}
	r.publish()
	return r, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Config returns the configuration the run was started with.
func (r *Run) Config() Config { return r.cfg }

// Errors delivers reveal failures. It is closed once the run finishes.
func (r *Run) Errors() <-chan error { return r.errs }

// Done is closed when the run will never tick again and, for scheduled runs,
// once the scheduler goroutine has exited.
func (r *Run) Done() <-chan struct{} { return r.done }

// Snapshot returns a copy of the state after the most recently applied tick.
func (r *Run) Snapshot() State {
	return r.snap.Load().clone()
}

func (r *Run) publish() {
	s := r.state.clone()
	r.snap.Store(&s)
}

// Tick advances progress by the configured increment and applies the stage
// and reveal rules. It reports false, and changes nothing, once the run is
// complete or cancelled.
func (r *Run) Tick() (State, bool) {
	r.tickMu.Lock()
	defer r.tickMu.Unlock()

	if r.state.Status != StatusRunning {
		return r.state.clone(), false
	}

	s := &r.state
	s.Ticks++
	s.Progress = min(s.Progress+r.cfg.Increment, MaxProgress)
	s.StageLabel = StageFor(r.cfg.Bands, r.cfg.completeLabel(), s.Progress)

	// Every pending metric at or below progress is (re)tried, so a failed
	// reveal recovers on a later tick.
	for _, m := range r.cfg.Metrics {
		if m.Threshold > s.Progress {
			break
		}
		if s.Revealed[m.Name].Resolved {
			continue
		}
		v, err := r.compute(m)
		if err != nil {
			s.FailedReveals++
			r.reportLocked(&MetricComputeError{RunID: s.RunID, Metric: m.Name, Progress: s.Progress, Err: err})
			continue
		}
		s.Revealed[m.Name] = Reveal{Resolved: true, Value: v, AtProgress: s.Progress}
		r.logger.Debug("revealed %s=%g at %d%%", m.Name, v, s.Progress)
	}

	if s.Progress == MaxProgress {
		s.Status = StatusComplete
	}
	s.UpdatedAt = r.clock.Now()
	r.publish()
	r.logger.Debug("tick %d: %d%% %q", s.Ticks, s.Progress, s.StageLabel)

	if s.Status == StatusComplete {
		r.logger.Info("complete after %d ticks, pending: %v", s.Ticks, s.Pending())
		r.finishLocked()
	}
	r.notifyLocked()
	return s.clone(), true
}

func (r *Run) compute(m Metric) (v float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrComputePanic, p)
		}
	}()
	return m.Compute(r.ctx)
}

func (r *Run) reportLocked(err *MetricComputeError) {
	r.logger.Warn("%v", err)
	select {
	case r.errs <- err:
	default:
		r.logger.Error("error channel full, dropping: %v", err)
	}
}

func (r *Run) notifyLocked() {
	if r.observer != nil {
		r.observer(r.state.clone())
	}
}

// finishLocked releases the scheduler and closes the error channel. No send
// on errs can follow because ticks are refused from here on.
func (r *Run) finishLocked() {
	close(r.errs)
	r.stopOnce.Do(func() { close(r.stop) })
	r.cancelCtx()
	if !r.scheduled {
		close(r.done)
	}
}

// Cancel stops the run. Once it returns no further tick is applied; a tick
// racing with it has either fully applied already or is refused. Cancel is
// idempotent and leaves a completed run untouched.
func (r *Run) Cancel() {
	// Unblock a compute function waiting on the context before taking the lock.
	r.cancelCtx()

	r.tickMu.Lock()
	defer r.tickMu.Unlock()
	if r.state.Status != StatusRunning {
		return
	}
	r.state.Status = StatusCancelled
	r.state.UpdatedAt = r.clock.Now()
	r.publish()
	r.logger.Info("cancelled at %d%%", r.state.Progress)
	r.finishLocked()
	r.notifyLocked()
}

func (r *Run) loop(t Ticker) {
	defer close(r.done)
	defer t.Stop()

	r.logger.Debug("scheduler started, interval %s", r.cfg.TickInterval)
	for {
		select {
		case <-r.stop:
			return
		case <-r.ctx.Done():
			r.Cancel()
			return
		case <-t.C():
			s, applied := r.Tick()
			if !applied || s.Finished() {
				return
			}
		}
	}
}
