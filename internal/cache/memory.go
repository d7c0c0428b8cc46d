package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/machinery-pricer/internal/models"
)

// MemoryStore provides in-process caching of estimates
type MemoryStore struct {
	cache   *gocache.Cache
	ttl     time.Duration
	maxSize int
	mu      sync.Mutex
	counters
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(ttl time.Duration, maxSize int) *MemoryStore {
	return &MemoryStore{
		cache:   gocache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a copy of a cached estimate
func (m *MemoryStore) Get(ctx context.Context, key string) (*models.Estimate, bool, error) {
	if v, found := m.cache.Get(key); found {
		if est, ok := v.(*models.Estimate); ok {
			m.record(true)
			return est.Clone(), true, nil
		}
	}
	m.record(false)
	return nil, false, nil
}

// Set stores an estimate. When full, expired entries are dropped first and
// the new entry is refused if that frees nothing.
func (m *MemoryStore) Set(ctx context.Context, key string, estimate *models.Estimate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.cache.Get(key); !exists && m.maxSize > 0 && m.cache.ItemCount() >= m.maxSize {
		m.cache.DeleteExpired()
		if m.cache.ItemCount() >= m.maxSize {
			return nil
		}
	}

	m.cache.Set(key, estimate.Clone(), m.ttl)
	return nil
}

// Flush empties the cache and resets statistics
func (m *MemoryStore) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache.Flush()
	m.reset()
	return nil
}

// Stats returns cache statistics
func (m *MemoryStore) Stats() Stats {
	return m.snapshot(m.cache.ItemCount())
}
