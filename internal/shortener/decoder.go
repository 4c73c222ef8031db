package shortener

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Decoder resolves codes back to their original URLs.
type Decoder struct {
	store  Repository
	cache  cacheGuard
	logger *zap.Logger
}

// NewDecoder creates a decoder. cache may be nil to run store-only.
func NewDecoder(store Repository, cache Cache, logger *zap.Logger, opts ...Option) *Decoder {
	cfg := newConfig(opts)

	return &Decoder{
		store:  store,
		cache:  cacheGuard{cache: cache, timeout: cfg.cacheTimeout, logger: logger},
		logger: logger,
	}
}

// Decode reports found=false for unknown codes; that is not an error.
// Cache hits carry no CreatedAt since the store is never consulted.
func (d *Decoder) Decode(ctx context.Context, code Code) (*ShortURL, bool, error) {
	if code == "" {
		return nil, false, nil
	}

	if original, ok := d.cache.originalByCode(ctx, code); ok {
		d.logger.Debug("decode cache hit", zap.String("code", string(code)))

		return &ShortURL{Code: code, OriginalURL: original, URLHash: HashURL(original)}, true, nil
	}

	d.logger.Debug("decode cache miss", zap.String("code", string(code)))

	shortURL, err := d.store.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}

		return nil, false, storeErr("find by code", err)
	}

	d.cache.store(ctx, shortURL)

	return shortURL, true, nil
}
