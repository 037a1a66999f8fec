package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter bounds how often one RFID may be scanned, independent of the
// tap-state debounce. Allow failing open on a backend error is the
// caller's decision; implementations report the error alongside.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory is a sliding-window limiter keyed by raw identifier; suitable
// for single-instance deployments. For shared state use the Redis one.
type Memory struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	seen map[string][]time.Time
}

// NewMemory creates a limiter allowing limit scans per key per window.
func NewMemory(limit int, window time.Duration) *Memory {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Memory{
		limit:  limit,
		window: window,
		now:    time.Now,
		seen:   make(map[string][]time.Time),
	}
}

// Allow records a scan and reports whether it stays within the limit.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-m.window)
	kept := m.seen[key][:0]
	for _, ts := range m.seen[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= m.limit {
		m.seen[key] = kept
		return false, nil
	}
	m.seen[key] = append(kept, now)
	return true, nil
}
