package shortener

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Encoder returns the canonical mapping for an original URL, creating it on first use.
type Encoder struct {
	store     Repository
	cache     cacheGuard
	generator *Generator
	hooks     []CreateHook
	logger    *zap.Logger
}

// NewEncoder creates an encoder. cache may be nil to run store-only.
func NewEncoder(
	store Repository, cache Cache, generator *Generator, logger *zap.Logger, opts ...Option,
) *Encoder {
	cfg := newConfig(opts)

	return &Encoder{
		store:     store,
		cache:     cacheGuard{cache: cache, timeout: cfg.cacheTimeout, logger: logger},
		generator: generator,
		hooks:     cfg.hooks,
		logger:    logger,
	}
}

// Encode is idempotent: encoding the same URL again returns the same code.
// It fails only when the store is unavailable or no free code can be found.
func (e *Encoder) Encode(ctx context.Context, originalURL string) (*ShortURL, error) {
	if code, ok := e.cache.codeByOriginal(ctx, originalURL); ok {
		shortURL, err := e.fromCachedCode(ctx, code, originalURL)
		if err != nil {
			return nil, err
		}

		if shortURL != nil {
			e.logger.Debug("encode cache hit", zap.String("code", string(code)))

			return shortURL, nil
		}
	}

	e.logger.Debug("encode cache miss", zap.String("originalUrl", originalURL))

	shortURL, created, err := e.findOrCreate(ctx, originalURL)
	if err != nil {
		return nil, err
	}

	e.cache.store(ctx, shortURL)

	if created {
		for _, hook := range e.hooks {
			hook(ctx, shortURL)
		}
	}

	return shortURL, nil
}

// fromCachedCode resolves a cached reverse-index hit. A nil result means the
// cached code points at a different URL and the entry must be ignored.
func (e *Encoder) fromCachedCode(ctx context.Context, code Code, originalURL string) (*ShortURL, error) {
	existing, err := e.store.FindByCode(ctx, code)

	switch {
	case err == nil:
		if existing.OriginalURL != originalURL {
			return nil, nil
		}

		return existing, nil
	case errors.Is(err, ErrNotFound):
		// Row removed out of band; the cache still knows the answer.
		return &ShortURL{Code: code, OriginalURL: originalURL, URLHash: HashURL(originalURL)}, nil
	default:
		return nil, storeErr("find by code", err)
	}
}

func (e *Encoder) findOrCreate(ctx context.Context, originalURL string) (*ShortURL, bool, error) {
	existing, err := e.findByOriginal(ctx, originalURL)
	if err != nil || existing != nil {
		if existing != nil {
			e.logger.Debug("reused existing short url", zap.String("code", string(existing.Code)))
		}

		return existing, false, err
	}

	// Existence checks and insert conflicts draw on one attempt budget.
	for range e.generator.MaxAttempts() {
		code, free, err := e.generator.next(ctx)
		if err != nil {
			return nil, false, err
		}

		if !free {
			continue
		}

		candidate := NewShortURL(code, originalURL)

		err = e.store.Create(ctx, candidate)
		if err == nil {
			e.logger.Info("created short url", zap.String("code", string(code)))

			return candidate, true, nil
		}

		if !errors.Is(err, ErrCodeConflict) && !errors.Is(err, ErrURLConflict) {
			return nil, false, storeErr("create", err)
		}

		// Someone else won the insert race; their mapping is canonical.
		winner, err := e.findByOriginal(ctx, originalURL)
		if err != nil {
			return nil, false, err
		}

		if winner != nil {
			e.logger.Debug("lost create race, returning winner", zap.String("code", string(winner.Code)))

			return winner, false, nil
		}

		e.logger.Debug("code collided on insert, regenerating", zap.String("code", string(code)))
	}

	return nil, false, fmt.Errorf("create: %w (%d)", ErrCodeExhausted, e.generator.MaxAttempts())
}

// findByOriginal returns (nil, nil) when the URL has no mapping yet.
func (e *Encoder) findByOriginal(ctx context.Context, originalURL string) (*ShortURL, error) {
	existing, err := e.store.FindByOriginalURL(ctx, originalURL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}

		return nil, storeErr("find by original url", err)
	}

	return existing, nil
}
