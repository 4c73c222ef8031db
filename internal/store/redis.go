package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
)

// createScript inserts a mapping only if neither the code nor the URL hash is taken.
// Returns 0 on insert, 1 on code conflict, 2 on URL conflict.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 1
end
if redis.call('HEXISTS', KEYS[2], ARGV[1]) == 1 then
	return 2
end
redis.call('HSET', KEYS[1], 'code', ARGV[2], 'original_url', ARGV[3], 'url_hash', ARGV[1], 'created_at', ARGV[4])
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
return 0
`)

// RedisStore keeps mappings durably in Redis. Keys never expire; this is a
// store for persistence-configured Redis deployments, not the cache.
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string // "link:" for code -> mapping hash
	hashKey string // "link_hashes" for urlHash -> code
}

// NewRedisStore creates a new Redis-backed URL store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client:  client,
		prefix:  "link:",
		hashKey: "link_hashes",
	}
}

func (r *RedisStore) Create(ctx context.Context, shortURL *shortener.ShortURL) error {
	hash := shortURL.URLHash
	if hash == "" {
		hash = shortener.HashURL(shortURL.OriginalURL)
	}

	result, err := createScript.Run(ctx, r.client,
		[]string{r.prefix + string(shortURL.Code), r.hashKey},
		string(hash),
		string(shortURL.Code),
		shortURL.OriginalURL,
		shortURL.CreatedAt.UnixNano(),
	).Int()
	if err != nil {
		return err
	}

	switch result {
	case 1:
		return shortener.ErrCodeConflict
	case 2:
		return shortener.ErrURLConflict
	default:
		return nil
	}
}

func (r *RedisStore) FindByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrNotFound
	}

	var createdAt time.Time

	if ts, ok := result["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			createdAt = time.Unix(0, nanos).UTC()
		}
	}

	return &shortener.ShortURL{
		Code:        shortener.Code(result["code"]),
		OriginalURL: result["original_url"],
		URLHash:     shortener.URLHash(result["url_hash"]),
		CreatedAt:   createdAt,
	}, nil
}

func (r *RedisStore) FindByOriginalURL(ctx context.Context, originalURL string) (*shortener.ShortURL, error) {
	code, err := r.client.HGet(ctx, r.hashKey, string(shortener.HashURL(originalURL))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return r.FindByCode(ctx, shortener.Code(code))
}

func (r *RedisStore) ExistsByCode(ctx context.Context, code shortener.Code) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+string(code)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// Compile-time check.
var _ shortener.Repository = (*RedisStore)(nil)
