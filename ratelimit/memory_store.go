package ratelimit

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	count   int64
	resetAt time.Time
}

// MemoryStore is a process-local Store. A single mutex guards the map, so
// concurrent increments of one key never lose updates.
type MemoryStore struct {
	mu        sync.Mutex
	counters  map[string]*counter
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryStore creates an empty store. A nil clock means time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		counters: make(map[string]*counter),
		now:      now,
	}
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= window {
		s.sweep(now)
		s.lastSweep = now
	}

	c, ok := s.counters[key]
	if !ok || !now.Before(c.resetAt) {
		c = &counter{count: 1, resetAt: now.Add(window)}
		s.counters[key] = c
	} else {
		c.count++
	}
	return Result{Count: c.count, ResetAt: c.resetAt}, nil
}

// sweep drops counters whose window has passed. Caller holds mu.
func (s *MemoryStore) sweep(now time.Time) {
	for key, c := range s.counters {
		if !now.Before(c.resetAt) {
			delete(s.counters, key)
		}
	}
}

// Len reports how many counters are currently held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}
