// Package dedupe tracks which event batches have already been rated.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// DefaultCapacity is the number of event IDs kept when no size is given.
const DefaultCapacity = 10000

// Tracker records event IDs so a batch is rated at most once.
type Tracker interface {
	// Claim records id and reports true if it was not seen before.
	Claim(ctx context.Context, id string) bool
	// Release forgets id so a failed batch can be retried.
	Release(ctx context.Context, id string)
	Len() int
}

// Option configures the in-memory tracker.
type Option func(*memoryTracker)

// WithCapacity bounds the tracker. Zero or negative keeps every ID.
func WithCapacity(n int) Option {
	return func(t *memoryTracker) {
		t.capacity = n
	}
}

// memoryTracker evicts the oldest claim once capacity is reached.
type memoryTracker struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[string]*list.Element
}

// NewTracker returns an in-memory tracker.
func NewTracker(opts ...Option) Tracker {
	t := &memoryTracker{
		capacity: DefaultCapacity,
		order:    list.New(),
		index:    make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *memoryTracker) Claim(_ context.Context, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.index[id]; ok {
		return false
	}
	if t.capacity > 0 && t.order.Len() >= t.capacity {
		oldest := t.order.Back()
		t.order.Remove(oldest)
		delete(t.index, oldest.Value.(string))
	}
	t.index[id] = t.order.PushFront(id)
	return true
}

func (t *memoryTracker) Release(_ context.Context, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.index[id]; ok {
		t.order.Remove(el)
		delete(t.index, id)
	}
}

func (t *memoryTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order.Len()
}
