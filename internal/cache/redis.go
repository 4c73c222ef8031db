// Package cache holds the expiring code <-> original URL projections that sit
// in front of the durable store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
)

// DefaultTTL is how long either direction of a cached mapping lives.
const DefaultTTL = 24 * time.Hour

const (
	codeKeyFormat     = "short_url:code:%s"
	originalKeyFormat = "short_url:original:%s"
)

// RedisCache is a Redis implementation of shortener.Cache.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed cache; ttl <= 0 uses DefaultTTL.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) OriginalByCode(ctx context.Context, code shortener.Code) (string, error) {
	return r.get(ctx, codeKey(code))
}

func (r *RedisCache) CodeByOriginal(ctx context.Context, originalURL string) (shortener.Code, error) {
	code, err := r.get(ctx, originalKey(originalURL))

	return shortener.Code(code), err
}

// Store writes both directions in one round-trip. The two SETs are
// independent; one may land without the other.
func (r *RedisCache) Store(ctx context.Context, shortURL *shortener.ShortURL) error {
	pipe := r.client.Pipeline()
	pipe.Set(ctx, codeKey(shortURL.Code), shortURL.OriginalURL, r.ttl)
	pipe.Set(ctx, originalKey(shortURL.OriginalURL), string(shortURL.Code), r.ttl)

	_, err := pipe.Exec(ctx)

	return err
}

func (r *RedisCache) get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", shortener.ErrCacheMiss
		}

		return "", err
	}

	return val, nil
}

func codeKey(code shortener.Code) string {
	return fmt.Sprintf(codeKeyFormat, code)
}

func originalKey(originalURL string) string {
	return fmt.Sprintf(originalKeyFormat, shortener.HashURL(originalURL))
}

// Compile-time check.
var _ shortener.Cache = (*RedisCache)(nil)
