package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/serroba/shortlink/internal/shortener"
)

// MemoryCache is an in-process implementation of shortener.Cache.
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates an in-process cache; ttl <= 0 uses DefaultTTL.
// Expired entries are swept every ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &MemoryCache{items: gocache.New(ttl, ttl)}
}

func (m *MemoryCache) OriginalByCode(_ context.Context, code shortener.Code) (string, error) {
	return m.get(codeKey(code))
}

func (m *MemoryCache) CodeByOriginal(_ context.Context, originalURL string) (shortener.Code, error) {
	code, err := m.get(originalKey(originalURL))

	return shortener.Code(code), err
}

func (m *MemoryCache) Store(_ context.Context, shortURL *shortener.ShortURL) error {
	m.items.SetDefault(codeKey(shortURL.Code), shortURL.OriginalURL)
	m.items.SetDefault(originalKey(shortURL.OriginalURL), string(shortURL.Code))

	return nil
}

// Flush drops every entry.
func (m *MemoryCache) Flush() {
	m.items.Flush()
}

// Len returns the number of keys, counting each direction separately.
func (m *MemoryCache) Len() int {
	return m.items.ItemCount()
}

func (m *MemoryCache) get(key string) (string, error) {
	v, ok := m.items.Get(key)
	if !ok {
		return "", shortener.ErrCacheMiss
	}

	s, ok := v.(string)
	if !ok {
		return "", shortener.ErrCacheMiss
	}

	return s, nil
}

// Compile-time check.
var _ shortener.Cache = (*MemoryCache)(nil)
