package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps sliding windows in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string][]time.Time), now: time.Now}
}

// Check records the request when it fits and reports the remaining budget.
func (m *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := m.now()
	start := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	reqs := keepRecent(m.windows[key], start)
	allowed := len(reqs) < limit
	if allowed {
		reqs = append(reqs, now)
	}
	m.windows[key] = reqs

	resetAt := now.Add(window)
	if len(reqs) > 0 {
		resetAt = reqs[0].Add(window)
	}
	return &Result{Allowed: allowed, Remaining: max(limit-len(reqs), 0), ResetAt: resetAt}, nil
}

// idleWindow is how long a chat's window is kept after its last request.
const idleWindow = 15 * time.Minute

// Cleanup drops windows idle for longer than maxAge and returns how many went.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, reqs := range m.windows {
		if len(reqs) == 0 || reqs[len(reqs)-1].Before(cutoff) {
			delete(m.windows, key)
			removed++
		}
	}
	return removed
}

// Sweep is Cleanup with the default idle window, run by the sweep job.
func (m *MemoryLimiter) Sweep() int {
	return m.Cleanup(idleWindow)
}

func keepRecent(reqs []time.Time, start time.Time) []time.Time {
	i := 0
	for i < len(reqs) && !reqs[i].After(start) {
		i++
	}
	return reqs[i:]
}
