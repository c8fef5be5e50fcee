package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard is a process-local duplicate guard suitable for single-instance
// deployments. State does not survive a restart, so duplicates can slip
// through across restarts; multi-instance deployments should use the DynamoDB
// guard instead.
//
// Eviction is by insertion order, not last access: once the map exceeds
// MaxEntries, the single oldest-inserted key is dropped. Refreshing an
// existing key after expiry keeps its original insertion position.
type MemoryGuard struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	order   []string // insertion order, fronts evicted first
	window  time.Duration
	maxSize int
	nowFunc func() time.Time
}

// NewMemoryGuard returns a guard with the given duplicate window.
func NewMemoryGuard(window time.Duration) *MemoryGuard {
	return &MemoryGuard{
		seen:    make(map[string]time.Time),
		window:  window,
		maxSize: MaxEntries,
		nowFunc: time.Now,
	}
}

// IsDuplicate implements Guard. The check-then-set pair holds the lock for its
// whole duration, so two racing requests with the same key cannot both be
// accepted by a single instance.
func (g *MemoryGuard) IsDuplicate(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.nowFunc()
	if last, ok := g.seen[key]; ok {
		if now.Sub(last) < g.window {
			// Duplicate: do not refresh, the original window stands.
			return true, nil
		}
		// Expired entry: accept and restart the window in place.
		g.seen[key] = now
		return false, nil
	}

	g.seen[key] = now
	g.order = append(g.order, key)

	if len(g.seen) > g.maxSize {
		oldest := g.order[0]
		g.order = g.order[1:]
		delete(g.seen, oldest)
	}
	return false, nil
}

// Len reports the number of tracked keys.
func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

var _ Guard = (*MemoryGuard)(nil)
