package cache

import (
	"context"

	"github.com/serroba/shortlink/internal/shortener"
)

// Noop is a cache that stores nothing and always misses.
type Noop struct{}

func (Noop) OriginalByCode(context.Context, shortener.Code) (string, error) {
	return "", shortener.ErrCacheMiss
}

func (Noop) CodeByOriginal(context.Context, string) (shortener.Code, error) {
	return "", shortener.ErrCacheMiss
}

func (Noop) Store(context.Context, *shortener.ShortURL) error {
	return nil
}

// Compile-time check.
var _ shortener.Cache = Noop{}
