package events

import (
	"context"
	"fmt"

	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// NewCacheWarmer returns a handler that writes each created mapping into the
// cache. It repairs write-throughs the encoder could not complete.
func NewCacheWarmer(cache shortener.Cache, logger *zap.Logger) messaging.Handler[LinkCreated] {
	return func(ctx context.Context, event *LinkCreated) error {
		if event.Code == "" || event.OriginalURL == "" {
			logger.Warn("skipping incomplete link created event", zap.String("code", event.Code))

			return nil
		}

		if err := cache.Store(ctx, event.ShortURL()); err != nil {
			return fmt.Errorf("warm cache for %s: %w", event.Code, err)
		}

		logger.Debug("cache warmed", zap.String("code", event.Code))

		return nil
	}
}
