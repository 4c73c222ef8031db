package shortener

import (
	"context"
	"time"
)

// DefaultCacheTimeout bounds a single cache call before it is treated as a miss.
const DefaultCacheTimeout = 100 * time.Millisecond

// CreateHook is called once for every mapping the Encoder creates.
// Reused mappings do not trigger it.
type CreateHook func(ctx context.Context, shortURL *ShortURL)

type config struct {
	cacheTimeout time.Duration
	hooks        []CreateHook
}

// Option configures an Encoder or Decoder.
type Option func(*config)

// WithCacheTimeout overrides DefaultCacheTimeout.
func WithCacheTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.cacheTimeout = d
		}
	}
}

// WithCreateHook registers a hook run after a new mapping is persisted.
func WithCreateHook(hook CreateHook) Option {
	return func(c *config) {
		if hook != nil {
			c.hooks = append(c.hooks, hook)
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{cacheTimeout: DefaultCacheTimeout}
	for _, opt := range opts {
		opt(c)
	}

	return c
}
