// Package history keeps summaries of finished analysis runs.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrClosed        = errors.New("store is closed")
	ErrInvalidRecord = errors.New("invalid history record")
)

// Record summarises one analysis run.
type Record struct {
	ID          string             `json:"id"`
	RunID       string             `json:"runId"`
	Profile     string             `json:"profile"`
	Sample      string             `json:"sample,omitempty"` // opaque image handle
	Status      string             `json:"status"`
	Progress    int                `json:"progress"`
	Metrics     map[string]float64 `json:"metrics"`
	Series      []float64          `json:"series,omitempty"`
	CompletedAt time.Time          `json:"completedAt"`
}

// Store is an append-only list of run summaries.
type Store interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context) ([]Record, error)
}

// QueryOptions filters RingBufferStore.Query.
type QueryOptions struct {
	Profile string    // exact slug match when set
	Since   time.Time // inclusive
	Limit   int       // 0 means no limit
}

// DefaultCapacity is the ring size used when none is given.
const DefaultCapacity = 100

// RingBufferStore keeps the most recent records in memory, evicting the
// oldest once full. It is not durable.
type RingBufferStore struct {
	mu        sync.RWMutex
	records   []Record
	size      int
	writePos  int
	readStart int
	count     int
	closed    bool
}

// NewRingBufferStore creates a store holding up to capacity records.
func NewRingBufferStore(capacity int) *RingBufferStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RingBufferStore{
		records: make([]Record, capacity),
		size:    capacity,
	}
}

// Append stores rec, assigning an ID when it has none.
func (s *RingBufferStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.RunID == "" {
		return fmt.Errorf("%w: missing run id", ErrInvalidRecord)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.Metrics = cloneMetrics(rec.Metrics)
	rec.Series = append([]float64(nil), rec.Series...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.records[s.writePos] = rec
	s.writePos = (s.writePos + 1) % s.size
	if s.count < s.size {
		s.count++
	} else {
		// Buffer is full, advance read position
		s.readStart = (s.readStart + 1) % s.size
	}
	return nil
}

// List returns all retained records, oldest first.
func (s *RingBufferStore) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make([]Record, 0, s.count)
	for i := 0; i < s.count; i++ {
		out = append(out, copyRecord(s.records[(s.readStart+i)%s.size]))
	}
	return out, nil
}

// Query returns matching records, most recent first.
func (s *RingBufferStore) Query(ctx context.Context, opts QueryOptions) ([]Record, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Record
	for i := len(all) - 1; i >= 0; i-- {
		rec := all[i]
		if opts.Profile != "" && Slug(rec.Profile) != Slug(opts.Profile) {
			continue
		}
		if !opts.Since.IsZero() && rec.CompletedAt.Before(opts.Since) {
			continue
		}
		out = append(out, rec)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of retained records.
func (s *RingBufferStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Close shuts down the store
func (s *RingBufferStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.records = nil
	s.count = 0
	return nil
}

func copyRecord(r Record) Record {
	r.Metrics = cloneMetrics(r.Metrics)
	r.Series = append([]float64(nil), r.Series...)
	return r
}

func cloneMetrics(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
