package events

import (
	"context"

	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// PublishOnCreate returns an encoder hook that publishes LinkCreated.
// A failed publish is logged; the mapping itself is already durable.
func PublishOnCreate(publish messaging.Publish[LinkCreated], logger *zap.Logger) shortener.CreateHook {
	return func(ctx context.Context, shortURL *shortener.ShortURL) {
		if err := publish(ctx, NewLinkCreated(shortURL)); err != nil {
			logger.Error("failed to publish link created event",
				zap.String("code", string(shortURL.Code)),
				zap.Error(err),
			)
		}
	}
}
