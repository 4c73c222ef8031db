package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/shortlink/internal/cache"
	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testURL = "https://example.com/very/long/path"

type recordingPublisher struct {
	topic    string
	messages []*message.Message
	err      error
}

func (r *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	if r.err != nil {
		return r.err
	}

	r.topic = topic
	r.messages = append(r.messages, msgs...)

	return nil
}

func (r *recordingPublisher) Close() error { return nil }

type failingCache struct{}

func (failingCache) OriginalByCode(context.Context, shortener.Code) (string, error) {
	return "", errors.New("cache down")
}

func (failingCache) CodeByOriginal(context.Context, string) (shortener.Code, error) {
	return "", errors.New("cache down")
}

func (failingCache) Store(context.Context, *shortener.ShortURL) error {
	return errors.New("cache down")
}

func newEncoder(t *testing.T, hook shortener.CreateHook) *shortener.Encoder {
	t.Helper()

	memStore := store.NewMemoryStore()

	source, err := shortener.NewNanoIDSource(8)
	require.NoError(t, err)

	return shortener.NewEncoder(
		memStore, nil, shortener.NewGenerator(memStore, source, 0), zap.NewNop(),
		shortener.WithCreateHook(hook),
	)
}

func TestLinkCreated(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	shortURL := &shortener.ShortURL{Code: "abc123XY", OriginalURL: testURL, CreatedAt: created}

	event := events.NewLinkCreated(shortURL)

	payload, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"code":"abc123XY","originalUrl":"`+testURL+`","createdAt":"2026-01-02T03:04:05Z"}`,
		string(payload))

	restored := event.ShortURL()
	assert.Equal(t, shortener.Code("abc123XY"), restored.Code)
	assert.Equal(t, shortener.HashURL(testURL), restored.URLHash)
	assert.Equal(t, created, restored.CreatedAt)
}

func TestPublishOnCreate(t *testing.T) {
	t.Run("publishes once per new mapping", func(t *testing.T) {
		pub := &recordingPublisher{}
		publish := messaging.NewPublishFunc[events.LinkCreated](pub, events.TopicLinkCreated)
		encoder := newEncoder(t, events.PublishOnCreate(publish, zap.NewNop()))

		first, err := encoder.Encode(context.Background(), testURL)
		require.NoError(t, err)

		_, err = encoder.Encode(context.Background(), testURL)
		require.NoError(t, err)

		require.Len(t, pub.messages, 1)
		assert.Equal(t, events.TopicLinkCreated, pub.topic)

		var event events.LinkCreated
		require.NoError(t, json.Unmarshal(pub.messages[0].Payload, &event))
		assert.Equal(t, string(first.Code), event.Code)
		assert.Equal(t, testURL, event.OriginalURL)
	})

	t.Run("logs publish failures without failing the encode", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		pub := &recordingPublisher{err: errors.New("stream down")}
		publish := messaging.NewPublishFunc[events.LinkCreated](pub, events.TopicLinkCreated)
		encoder := newEncoder(t, events.PublishOnCreate(publish, zap.New(core)))

		shortURL, err := encoder.Encode(context.Background(), testURL)

		require.NoError(t, err)
		assert.NotEmpty(t, shortURL.Code)
		assert.Equal(t, 1, logs.FilterMessage("failed to publish link created event").Len())
	})
}

func TestCacheWarmer(t *testing.T) {
	t.Run("stores the mapping in both directions", func(t *testing.T) {
		memCache := cache.NewMemoryCache(cache.DefaultTTL)
		warm := events.NewCacheWarmer(memCache, zap.NewNop())

		err := warm(context.Background(), &events.LinkCreated{Code: "abc123XY", OriginalURL: testURL})
		require.NoError(t, err)

		original, err := memCache.OriginalByCode(context.Background(), "abc123XY")
		require.NoError(t, err)
		assert.Equal(t, testURL, original)

		code, err := memCache.CodeByOriginal(context.Background(), testURL)
		require.NoError(t, err)
		assert.Equal(t, shortener.Code("abc123XY"), code)
	})

	t.Run("skips incomplete events", func(t *testing.T) {
		memCache := cache.NewMemoryCache(cache.DefaultTTL)
		warm := events.NewCacheWarmer(memCache, zap.NewNop())

		require.NoError(t, warm(context.Background(), &events.LinkCreated{Code: "abc123XY"}))
		assert.Zero(t, memCache.Len())
	})

	t.Run("returns cache errors for redelivery", func(t *testing.T) {
		warm := events.NewCacheWarmer(failingCache{}, zap.NewNop())

		err := warm(context.Background(), &events.LinkCreated{Code: "abc123XY", OriginalURL: testURL})

		assert.ErrorContains(t, err, "warm cache for abc123XY")
	})

	t.Run("runs as a consumer", func(t *testing.T) {
		memCache := cache.NewMemoryCache(cache.DefaultTTL)
		msgs := make(chan *message.Message, 1)
		sub := &channelSubscriber{msgs: msgs}

		consumer := messaging.NewConsumer(
			sub, events.TopicLinkCreated, events.NewCacheWarmer(memCache, zap.NewNop()), zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))
		t.Cleanup(func() { _ = consumer.Shutdown() })

		payload, err := json.Marshal(&events.LinkCreated{Code: "abc123XY", OriginalURL: testURL})
		require.NoError(t, err)

		msg := message.NewMessage(uuid.NewString(), payload)
		msgs <- msg

		select {
		case <-msg.Acked():
		case <-msg.Nacked():
			t.Fatal("message was nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}

		original, err := memCache.OriginalByCode(context.Background(), "abc123XY")
		require.NoError(t, err)
		assert.Equal(t, testURL, original)
	})
}

type channelSubscriber struct {
	msgs chan *message.Message
}

func (c *channelSubscriber) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	return c.msgs, nil
}

func (c *channelSubscriber) Close() error { return nil }
