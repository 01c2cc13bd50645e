package estimation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type manualTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (t *manualTicker) C() <-chan time.Time { return t.c }
func (t *manualTicker) Stop()               { t.stopped.Store(true) }

// manualClock hands out tickers that only fire when the test says so.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{c: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) ticker(t *testing.T) *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	require.Len(t, c.tickers, 1)
	return c.tickers[0]
}

// fire delivers one tick and waits for the resulting state.
func (c *manualClock) fire(t *testing.T, updates <-chan State) State {
	t.Helper()
	c.mu.Lock()
	c.now = c.now.Add(time.Second)
	now := c.now
	c.mu.Unlock()

	select {
	case c.ticker(t).c <- now:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not accept tick")
	}
	select {
	case s := <-updates:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no state after tick")
	}
	return State{}
}

func observe() (func(State), chan State) {
	ch := make(chan State, 256)
	return func(s State) { ch <- s }, ch
}

func TestScheduledRunCompletes(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := newManualClock()
	obs, updates := observe()
	cfg := validConfig()
	cfg.Increment = 25
	r, err := Start(context.Background(), cfg, WithClock(clock), WithObserver(obs))
	require.NoError(t, err)

	var last State
	for i := 0; i < 4; i++ {
		last = clock.fire(t, updates)
	}
	<-r.Done()

	assert.Equal(t, StatusComplete, last.Status)
	assert.Equal(t, 100, last.Progress)
	assert.True(t, last.Ready())
	assert.Equal(t, clock.Now(), last.UpdatedAt)
	assert.True(t, clock.ticker(t).stopped.Load())
}

func TestScheduledCancelStopsTicks(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := newManualClock()
	obs, updates := observe()
	r, err := Start(context.Background(), validConfig(), WithClock(clock), WithObserver(obs))
	require.NoError(t, err)

	clock.fire(t, updates)
	clock.fire(t, updates)
	r.Cancel()
	<-r.Done()

	s := r.Snapshot()
	assert.Equal(t, StatusCancelled, s.Status)
	assert.Equal(t, 8, s.Progress)

	select {
	case clock.ticker(t).c <- time.Now():
		t.Fatal("scheduler still receiving ticks after cancel")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, 8, r.Snapshot().Progress)
}

func TestContextCancelCancelsRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	clock := newManualClock()
	obs, updates := observe()
	r, err := Start(ctx, validConfig(), WithClock(clock), WithObserver(obs))
	require.NoError(t, err)

	clock.fire(t, updates)
	cancel()
	<-r.Done()
	assert.Equal(t, StatusCancelled, r.Snapshot().Status)
	assert.Equal(t, 4, r.Snapshot().Progress)
}

func TestRealClockRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := validConfig()
	cfg.Increment = 10
	r, err := Start(context.Background(), cfg)
	require.NoError(t, err)

	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not complete")
	}
	s := r.Snapshot()
	assert.Equal(t, StatusComplete, s.Status)
	assert.Equal(t, 10, s.Ticks)
}

func TestCancelRacingTimer(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := validConfig()
	cfg.Increment = 1
	cfg.TickInterval = 100 * time.Microsecond
	r, err := Start(context.Background(), cfg)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stopReaders := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev := 0
			for {
				select {
				case <-stopReaders:
					return
				default:
				}
				s := r.Snapshot()
				// A snapshot never shows a half applied tick.
				if s.Progress >= 25 {
					assert.True(t, s.Revealed["current"].Resolved)
				}
				assert.GreaterOrEqual(t, s.Progress, prev)
				prev = s.Progress
			}
		}()
	}

	time.Sleep(5 * time.Millisecond)
	r.Cancel()
	frozen := r.Snapshot()
	time.Sleep(5 * time.Millisecond)
	close(stopReaders)
	wg.Wait()
	<-r.Done()

	after := r.Snapshot()
	assert.Equal(t, frozen.Progress, after.Progress)
	assert.Equal(t, frozen.Ticks, after.Ticks)
	assert.NotEqual(t, StatusRunning, after.Status)
}
