package storage

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = time.Minute

// MemoryIdempotencyStore keeps claimed request keys in process memory.
// Expired keys are dropped at most once per sweepInterval.
type MemoryIdempotencyStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	keys      map[string]time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		ttl:       idempotencyKeyTTL,
		now:       time.Now,
		lastSweep: time.Now(),
		keys:      make(map[string]time.Time),
	}
}

func (m *MemoryIdempotencyStore) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if expires, ok := m.keys[key]; ok && now.Before(expires) {
		return false, nil
	}
	m.keys[key] = now.Add(m.ttl)

	if now.Sub(m.lastSweep) >= sweepInterval {
		m.sweep(now)
	}
	return true, nil
}

func (m *MemoryIdempotencyStore) sweep(now time.Time) {
	for k, expires := range m.keys {
		if !now.Before(expires) {
			delete(m.keys, k)
		}
	}
	m.lastSweep = now
}

func (m *MemoryIdempotencyStore) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}
