package shortener

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when no mapping matches the lookup.
	ErrNotFound = errors.New("short url not found")
	// ErrCacheMiss is returned by caches when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
	// ErrCodeConflict is returned by Create when the code is already assigned.
	ErrCodeConflict = errors.New("short code already exists")
	// ErrURLConflict is returned by Create when the original URL already has a mapping.
	ErrURLConflict = errors.New("original url already shortened")
	// ErrStoreUnavailable wraps every store failure that is not a lookup miss or a conflict.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrCodeExhausted is returned when no free code was found within the attempt budget.
	ErrCodeExhausted = errors.New("no free short code after maximum attempts")
)

// Repository is the durable store of mappings.
type Repository interface {
	// FindByCode returns ErrNotFound when the code is unknown.
	FindByCode(ctx context.Context, code Code) (*ShortURL, error)
	// FindByOriginalURL returns the canonical mapping for the URL or ErrNotFound.
	FindByOriginalURL(ctx context.Context, originalURL string) (*ShortURL, error)
	// Create inserts a new mapping. It returns ErrCodeConflict or ErrURLConflict
	// when a uniqueness constraint rejects the insert.
	Create(ctx context.Context, shortURL *ShortURL) error
	ExistsByCode(ctx context.Context, code Code) (bool, error)
}

// Cache is a bidirectional, expiring projection of the Repository.
// It is never a source of truth; losing every entry only costs store round-trips.
type Cache interface {
	// OriginalByCode returns ErrCacheMiss when the code is not cached.
	OriginalByCode(ctx context.Context, code Code) (string, error)
	// CodeByOriginal returns ErrCacheMiss when the URL is not cached.
	CodeByOriginal(ctx context.Context, originalURL string) (Code, error)
	// Store writes both directions, each with its own expiry.
	Store(ctx context.Context, shortURL *ShortURL) error
}

// storeErr tags unexpected store failures so callers can match a single kind.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
