// Package container wires the service's components with samber/do.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/cache"
	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/health"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"go.uber.org/zap"
)

// CacheWarmerGroup is the Redis streams consumer group of the cache warmer.
const CacheWarmerGroup = "cache-warmer"

const connectTimeout = 5 * time.Second

// RedisClient closes the Redis connection on injector shutdown.
type RedisClient struct {
	Client *redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Client.Close()
}

// PostgresPool closes the pool on injector shutdown.
type PostgresPool struct {
	*pgxpool.Pool
}

func (p *PostgresPool) Shutdown() error {
	p.Close()

	return nil
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		var cfg zap.Config
		if opts.LogFormat == "json" {
			cfg = zap.NewProductionConfig()
		} else {
			cfg = zap.NewDevelopmentConfig()
		}

		if opts.LogLevel != "" {
			level, err := zap.ParseAtomicLevel(opts.LogLevel)
			if err != nil {
				return nil, fmt.Errorf("parse log level: %w", err)
			}

			cfg.Level = level
		}

		return cfg.Build()
	})
}

// RedisPackage provides the shared Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// PostgresPackage provides the pgx pool, migrating the schema first when enabled.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*PostgresPool, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.Migrate {
			if err := store.Migrate(opts.DatabaseURL); err != nil {
				return nil, err
			}

			logger.Info("database migrated")
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return &PostgresPool{Pool: pool}, nil
	})
}

// RepositoryPackage provides the durable store selected by Options.Store.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Store {
		case BackendMemory:
			return store.NewMemoryStore(), nil
		case BackendPostgres:
			pool, err := do.Invoke[*PostgresPool](i)
			if err != nil {
				return nil, err
			}

			return store.NewPostgresStore(pool.Pool), nil
		case BackendRedis:
			return store.NewRedisStore(do.MustInvoke[*RedisClient](i).Client), nil
		default:
			return nil, fmt.Errorf("unknown store backend %q", opts.Store)
		}
	})
}

// CachePackage provides the cache selected by Options.Cache.
func CachePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.Cache, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Cache {
		case BackendRedis:
			return cache.NewRedisCache(do.MustInvoke[*RedisClient](i).Client, opts.CacheTTLDuration()), nil
		case BackendMemory:
			return cache.NewMemoryCache(opts.CacheTTLDuration()), nil
		case BackendNone:
			return cache.Noop{}, nil
		default:
			return nil, fmt.Errorf("unknown cache backend %q", opts.Cache)
		}
	})
}

// PublisherGroupPackage provides the Redis streams publisher and the
// link.created publish function.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*RedisClient](i).Client
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[events.LinkCreated], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[events.LinkCreated](group.Publisher(), events.TopicLinkCreated), nil
	})
}

// ShortenerPackage provides the code generator and the encode/decode orchestrators.
func ShortenerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*shortener.Generator, error) {
		opts := do.MustInvoke[*Options](i)

		source, err := shortener.NewNanoIDSource(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewGenerator(do.MustInvoke[shortener.Repository](i), source, opts.MaxCodeAttempts), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Encoder, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		encoderOpts := []shortener.Option{shortener.WithCacheTimeout(opts.CacheTimeoutDuration())}
		if opts.Events {
			publish := do.MustInvoke[messaging.Publish[events.LinkCreated]](i)
			encoderOpts = append(encoderOpts, shortener.WithCreateHook(events.PublishOnCreate(publish, logger)))
		}

		return shortener.NewEncoder(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[shortener.Cache](i),
			do.MustInvoke[*shortener.Generator](i),
			logger,
			encoderOpts...,
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Decoder, error) {
		opts := do.MustInvoke[*Options](i)

		return shortener.NewDecoder(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[shortener.Cache](i),
			do.MustInvoke[*zap.Logger](i),
			shortener.WithCacheTimeout(opts.CacheTimeoutDuration()),
		), nil
	})
}

// RateLimitPackage provides the limiter, backed by Redis whenever Redis is in use.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.Limiter, error) {
		opts := do.MustInvoke[*Options](i)

		var limitStore ratelimit.Store = ratelimit.NewMemoryStore()
		if opts.UsesRedis() {
			limitStore = ratelimit.NewRedisStore(do.MustInvoke[*RedisClient](i).Client)
		}

		return ratelimit.NewLimiter(limitStore, ratelimit.Limit{Window: time.Minute, Max: 60}), nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig("Shortlink", "1.0.0"))
		api.UseMiddleware(middleware.RequestLogger(logger))
		api.UseMiddleware(middleware.RateLimiter(api, do.MustInvoke[*ratelimit.Limiter](i), logger))

		urlHandler, err := handlers.NewURLHandler(
			do.MustInvoke[*shortener.Encoder](i),
			do.MustInvoke[*shortener.Decoder](i),
			opts.PublicBaseURL(),
			logger,
		)
		if err != nil {
			return nil, err
		}

		checkers := map[string]health.Checker{}
		if opts.UsesRedis() {
			checkers[BackendRedis] = health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client)
		}

		if opts.Store == BackendPostgres {
			checkers[BackendPostgres] = health.NewPostgresChecker(do.MustInvoke[*PostgresPool](i).Pool)
		}

		health.RegisterRoutes(api, health.NewHandler(checkers))
		handlers.RegisterRoutes(api, urlHandler)

		return api, nil
	})
}

// ConsumerGroupPackage provides the consumer group running the cache warmer.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*RedisClient](i).Client
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: CacheWarmerGroup,
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			events.TopicLinkCreated,
			events.NewCacheWarmer(do.MustInvoke[shortener.Cache](i), logger),
			logger,
		))

		return group, nil
	})
}

// Register provides every package the HTTP server needs.
func Register(injector *do.Injector, options *Options) {
	do.ProvideValue(injector, options)
	LoggerPackage(injector)
	RedisPackage(injector)
	PostgresPackage(injector)
	RepositoryPackage(injector)
	CachePackage(injector)
	PublisherGroupPackage(injector)
	ShortenerPackage(injector)
	RateLimitPackage(injector)
	HTTPPackage(injector)
}
