package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type windowRecord struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps request counts in a process-local map guarded by a
// mutex. Accuracy is best-effort under concurrency; an off-by-one in a
// request budget is an accepted consequence. Expired records are swept
// opportunistically on a small fraction of calls rather than by a timer,
// which bounds memory growth without a background goroutine.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowRecord
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*windowRecord),
		now:     time.Now,
	}
}

// Admit implements Store. It never returns a non-nil error.
func (s *MemoryStore) Admit(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// roughly one sweep per thousand admissions
	if rand.Float64() < 0.001 {
		s.sweep(now)
	}

	rec, ok := s.entries[key]
	if !ok || !rec.resetAt.After(now) {
		resetAt := now.Add(window)
		s.entries[key] = &windowRecord{count: 1, resetAt: resetAt}
		return Result{Allowed: true, Remaining: limit - 1, ResetAt: resetAt}, nil
	}

	if rec.count >= limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: rec.resetAt}, nil
	}

	rec.count++
	return Result{Allowed: true, Remaining: limit - rec.count, ResetAt: rec.resetAt}, nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for k, rec := range s.entries {
		if !rec.resetAt.After(now) {
			delete(s.entries, k)
		}
	}
}
