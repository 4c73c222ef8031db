package store

import (
	"context"
	"sync"

	"github.com/serroba/shortlink/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
// Codes and URL hashes are both unique, like the Postgres schema.
type MemoryStore struct {
	mu     sync.RWMutex
	urls   map[shortener.Code]shortener.ShortURL
	hashes map[shortener.URLHash]shortener.Code
}

// NewMemoryStore creates a new in-memory URL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		urls:   make(map[shortener.Code]shortener.ShortURL),
		hashes: make(map[shortener.URLHash]shortener.Code),
	}
}

func (m *MemoryStore) Create(_ context.Context, shortURL *shortener.ShortURL) error {
	hash := shortURL.URLHash
	if hash == "" {
		hash = shortener.HashURL(shortURL.OriginalURL)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.urls[shortURL.Code]; ok {
		return shortener.ErrCodeConflict
	}

	if _, ok := m.hashes[hash]; ok {
		return shortener.ErrURLConflict
	}

	stored := *shortURL
	stored.URLHash = hash
	m.urls[stored.Code] = stored
	m.hashes[hash] = stored.Code

	return nil
}

func (m *MemoryStore) FindByCode(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.urls[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &stored, nil
}

func (m *MemoryStore) FindByOriginalURL(_ context.Context, originalURL string) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.hashes[shortener.HashURL(originalURL)]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	stored := m.urls[code]

	return &stored, nil
}

func (m *MemoryStore) ExistsByCode(_ context.Context, code shortener.Code) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.urls[code]

	return ok, nil
}

// Delete removes a mapping. It exists for administrative tooling and tests;
// the resolution engine never deletes.
func (m *MemoryStore) Delete(_ context.Context, code shortener.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.urls[code]
	if !ok {
		return shortener.ErrNotFound
	}

	delete(m.urls, code)
	delete(m.hashes, stored.URLHash)

	return nil
}

// Len returns the number of stored mappings.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.urls)
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
