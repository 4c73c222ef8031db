package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/shortlink/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublishFunc(t *testing.T) {
	t.Run("publishes a json payload tagged with its topic", func(t *testing.T) {
		pub := &mockPublisher{}
		publish := messaging.NewPublishFunc[linkEvent](pub, "link.created")

		err := publish(context.Background(), &linkEvent{Code: "abc123XY", URL: "https://example.com"})

		require.NoError(t, err)
		assert.Equal(t, "link.created", pub.topic)
		require.Len(t, pub.messages, 1)

		msg := pub.messages[0]
		assert.JSONEq(t, `{"code":"abc123XY","url":"https://example.com"}`, string(msg.Payload))
		assert.Equal(t, "link.created", msg.Metadata.Get(messaging.MetadataEventType))
		assert.NotEmpty(t, msg.UUID)
	})

	t.Run("gives every message its own uuid", func(t *testing.T) {
		pub := &mockPublisher{}
		publish := messaging.NewPublishFunc[linkEvent](pub, "link.created")

		require.NoError(t, publish(context.Background(), &linkEvent{Code: "a"}))
		require.NoError(t, publish(context.Background(), &linkEvent{Code: "b"}))

		require.Len(t, pub.messages, 2)
		assert.NotEqual(t, pub.messages[0].UUID, pub.messages[1].UUID)
	})

	t.Run("wraps publisher errors with the topic", func(t *testing.T) {
		cause := errors.New("stream down")
		publish := messaging.NewPublishFunc[linkEvent](&mockPublisher{publishErr: cause}, "link.created")

		err := publish(context.Background(), &linkEvent{Code: "abc123XY"})

		require.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "publish link.created event")
	})
}

func TestPublisherGroup(t *testing.T) {
	t.Run("exposes the underlying publisher", func(t *testing.T) {
		pub := &mockPublisher{}

		assert.Same(t, pub, messaging.NewPublisherGroup(pub).Publisher())
	})

	t.Run("closes the publisher on shutdown", func(t *testing.T) {
		assert.NoError(t, messaging.NewPublisherGroup(&mockPublisher{}).Shutdown())

		err := messaging.NewPublisherGroup(&mockPublisher{closeErr: errors.New("close error")}).Shutdown()
		assert.EqualError(t, err, "close error")
	})
}
