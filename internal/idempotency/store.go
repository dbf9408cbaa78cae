package idempotency

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrInFlight is returned when another request holding the same key has not
// finished yet.
var ErrInFlight = errors.New("request with this idempotency key is in progress")

// Store is a dedup index for client retries. Reserve either claims the key
// (nil payload, nil error), returns the payload stored by Commit for a
// finished request, or fails with ErrInFlight. Release drops a claim so a
// failed request can be retried.
type Store interface {
	Reserve(ctx context.Context, key string) ([]byte, error)
	Commit(ctx context.Context, key string, payload []byte) error
	Release(ctx context.Context, key string) error
}

// Key joins the scope parts of an idempotency key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

type memEntry struct {
	payload []byte
	pending bool
	expires time.Time
}

// MemoryStore is the single-process Store used when redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Reserve(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.entries[key]; ok && now.Before(e.expires) {
		if e.pending {
			return nil, ErrInFlight
		}
		return e.payload, nil
	}
	m.entries[key] = memEntry{pending: true, expires: now.Add(m.ttl)}
	return nil, nil
}

func (m *MemoryStore) Commit(ctx context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memEntry{payload: payload, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Sweep drops expired entries.
func (m *MemoryStore) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
}

// Run sweeps every interval until ctx is done.
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
