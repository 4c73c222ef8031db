package shortener

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// cacheGuard bounds every cache call with a timeout and absorbs its failures.
// A nil cache behaves as a cache that always misses.
type cacheGuard struct {
	cache   Cache
	timeout time.Duration
	logger  *zap.Logger
}

func (g cacheGuard) originalByCode(ctx context.Context, code Code) (string, bool) {
	if g.cache == nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	original, err := g.cache.OriginalByCode(ctx, code)
	if err != nil {
		g.logFailure("cache lookup by code failed", err, zap.String("code", string(code)))

		return "", false
	}

	return original, true
}

func (g cacheGuard) codeByOriginal(ctx context.Context, originalURL string) (Code, bool) {
	if g.cache == nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	code, err := g.cache.CodeByOriginal(ctx, originalURL)
	if err != nil {
		g.logFailure("cache lookup by url failed", err, zap.String("originalUrl", originalURL))

		return "", false
	}

	return code, true
}

func (g cacheGuard) store(ctx context.Context, shortURL *ShortURL) {
	if g.cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.cache.Store(ctx, shortURL); err != nil {
		g.logger.Warn("cache write failed",
			zap.String("code", string(shortURL.Code)),
			zap.Error(err),
		)
	}
}

func (g cacheGuard) logFailure(msg string, err error, field zap.Field) {
	if errors.Is(err, ErrCacheMiss) {
		return
	}

	g.logger.Warn(msg, field, zap.Error(err))
}
