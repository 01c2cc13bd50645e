package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func record(runID string, profile string, at time.Time) Record {
	return Record{
		RunID:       runID,
		Profile:     profile,
		Status:      "complete",
		Progress:    100,
		Metrics:     map[string]float64{"current": 9.8},
		Series:      []float64{13.61, 18, 31.47},
		CompletedAt: at,
	}
}

func runIDs(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.RunID
	}
	return out
}

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	s := NewRingBufferStore(10)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		assert.NilError(t, s.Append(ctx, record(fmt.Sprintf("run-%d", i), "Leaf Blight", base.Add(time.Duration(i)*time.Hour))))
	}

	recs, err := s.List(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, runIDs(recs), []string{"run-0", "run-1", "run-2"})
	for _, r := range recs {
		assert.Assert(t, r.ID != "", "record id assigned")
	}
	assert.Equal(t, s.Len(), 3)
}

func TestRingEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewRingBufferStore(2)
	now := time.Now()
	for _, id := range []string{"a", "b", "c"} {
		assert.NilError(t, s.Append(ctx, record(id, "p", now)))
	}
	recs, err := s.List(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, runIDs(recs), []string{"b", "c"})
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewRingBufferStore(0)
	assert.NilError(t, s.Append(ctx, record("a", "p", time.Now())))

	recs, err := s.List(ctx)
	assert.NilError(t, err)
	recs[0].Metrics["current"] = -1
	recs[0].Series[0] = -1

	again, err := s.List(ctx)
	assert.NilError(t, err)
	assert.Equal(t, again[0].Metrics["current"], 9.8)
	assert.Equal(t, again[0].Series[0], 13.61)
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	s := NewRingBufferStore(10)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.NilError(t, s.Append(ctx, record("1", "Leaf Blight", base)))
	assert.NilError(t, s.Append(ctx, record("2", "Powdery Mildew", base.Add(time.Hour))))
	assert.NilError(t, s.Append(ctx, record("3", "leaf-blight", base.Add(2*time.Hour))))
	assert.NilError(t, s.Append(ctx, record("4", "Leaf Blight", base.Add(3*time.Hour))))

	recs, err := s.Query(ctx, QueryOptions{Profile: "leaf blight"})
	assert.NilError(t, err)
	assert.DeepEqual(t, runIDs(recs), []string{"4", "3", "1"})

	recs, err = s.Query(ctx, QueryOptions{Since: base.Add(time.Hour), Limit: 2})
	assert.NilError(t, err)
	assert.DeepEqual(t, runIDs(recs), []string{"4", "3"})
}

func TestAppendValidation(t *testing.T) {
	s := NewRingBufferStore(1)
	err := s.Append(context.Background(), Record{})
	assert.Assert(t, errors.Is(err, ErrInvalidRecord))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Append(ctx, record("a", "p", time.Now()))
	assert.Assert(t, errors.Is(err, context.Canceled))
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := NewRingBufferStore(1)
	assert.NilError(t, s.Close())
	assert.Assert(t, errors.Is(s.Append(ctx, record("a", "p", time.Now())), ErrClosed))
	_, err := s.List(ctx)
	assert.Assert(t, errors.Is(err, ErrClosed))
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewRingBufferStore(50)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.Check(t, s.Append(ctx, record(fmt.Sprint(i), "p", time.Now())))
		}(i)
	}
	wg.Wait()
	recs, err := s.List(ctx)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(recs, 50))
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Leaf Blight":             "leaf-blight",
		"  Mildiú Pulverulento  ": "mildiu-pulverulento",
		"t+7":                     "t-7",
		"Café -- Rust!":           "cafe-rust",
		"":                        "",
	}
	for in, want := range cases {
		assert.Equal(t, Slug(in), want, "input %q", in)
	}
}
