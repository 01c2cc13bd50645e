package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panyam/cropcast/estimation"
	"github.com/panyam/cropcast/history"
	"github.com/panyam/cropcast/logging"
)

var (
	ErrCancelled = errors.New("analysis cancelled")
	ErrNoSample  = errors.New("no image sample")
)

// Sample is the opaque handle returned by image acquisition (camera or
// gallery). The analysis never looks inside it.
type Sample struct {
	ImageURI string
}

// ImageSource acquires a sample to analyse.
type ImageSource interface {
	Acquire(ctx context.Context) (Sample, error)
}

// StaticImage is an ImageSource that always returns the same URI.
type StaticImage string

func (s StaticImage) Acquire(context.Context) (Sample, error) {
	if s == "" {
		return Sample{}, ErrNoSample
	}
	return Sample{ImageURI: string(s)}, nil
}

// Session owns the analysis flow of one user: at most one run is active and
// starting again replaces it with a fresh, independent run.
type Session struct {
	profile Profile
	store   history.Store
	opts    []estimation.Option

	mu      sync.Mutex
	current *estimation.Run
	samples map[string]Sample // by run id
	reports map[string]Report // recorded runs, by run id
}

// NewSession validates the profile. store may be nil to skip history.
func NewSession(p Profile, store history.Store, opts ...estimation.Option) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		profile: p,
		store:   store,
		opts:    opts,
		samples: map[string]Sample{},
		reports: map[string]Report{},
	}, nil
}

// Profile returns the session profile.
func (s *Session) Profile() Profile { return s.profile }

// Start begins a new scheduled run for sample and cancels the run it
// replaces. The two runs share no state.
func (s *Session) Start(ctx context.Context, sample Sample, opts ...estimation.Option) (*estimation.Run, error) {
	all := append(append([]estimation.Option(nil), s.opts...), opts...)
	run, err := estimation.Start(ctx, s.profile.Engine, all...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	prev := s.current
	s.current = run
	s.samples[run.ID()] = sample
	if prev != nil {
		delete(s.samples, prev.ID())
	}
	s.mu.Unlock()

	// Cancel outside the lock: observers may call back into the session.
	if prev != nil {
		prev.Cancel()
	}
	logging.Info("started %q analysis %s for %s", s.profile.Name, run.ID(), sample.ImageURI)
	return run, nil
}

// Current returns the active run, or nil.
func (s *Session) Current() *estimation.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Cancel stops the active run, if any.
func (s *Session) Cancel() {
	if run := s.Current(); run != nil {
		run.Cancel()
	}
}

// Wait blocks until run finishes and returns its report. A completed run is
// appended to the history store once; later calls return the same report.
// A cancelled run yields ErrCancelled.
func (s *Session) Wait(ctx context.Context, run *estimation.Run) (Report, error) {
	select {
	case <-run.Done():
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}

	state := run.Snapshot()
	if state.Status == estimation.StatusCancelled {
		return Report{}, fmt.Errorf("%w: run %s at %d%%", ErrCancelled, state.RunID, state.Progress)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if report, ok := s.reports[run.ID()]; ok {
		return report, nil
	}

	report, err := BuildReport(s.profile, state)
	if err != nil {
		return Report{}, err
	}
	report.Sample = s.samples[run.ID()]

	if s.store != nil {
		if err := s.store.Append(ctx, report.Record()); err != nil {
			return report, fmt.Errorf("recording run %s: %w", state.RunID, err)
		}
	}
	delete(s.samples, run.ID())
	s.reports[run.ID()] = report
	return report, nil
}
