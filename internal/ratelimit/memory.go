package ratelimit

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval is how often expired windows are swept from memory.
const DefaultCleanupInterval = time.Minute

// MemoryStore keeps one sliding window per key in process memory.
// Each key expires one window after its latest request, so idle clients
// are forgotten.
type MemoryStore struct {
	mu      sync.Mutex
	windows *gocache.Cache
}

// NewMemoryStore creates a store swept every DefaultCleanupInterval.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithCleanup(DefaultCleanupInterval)
}

// NewMemoryStoreWithCleanup creates a store swept every interval.
func NewMemoryStoreWithCleanup(interval time.Duration) *MemoryStore {
	return &MemoryStore{windows: gocache.New(gocache.NoExpiration, interval)}
}

func (s *MemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-window)

	var recent []time.Time

	if cached, ok := s.windows.Get(key); ok {
		for _, at := range cached.([]time.Time) {
			if at.After(cutoff) {
				recent = append(recent, at)
			}
		}
	}

	recent = append(recent, now)
	s.windows.Set(key, recent, window)

	return int64(len(recent)), nil
}

// Len returns the number of keys with a request inside their window.
func (s *MemoryStore) Len() int {
	return len(s.windows.Items())
}
