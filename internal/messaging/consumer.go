package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// DefaultHandlerTimeout bounds a single handler call.
const DefaultHandlerTimeout = 10 * time.Second

// Handler processes a single event.
type Handler[T any] func(ctx context.Context, event *T) error

// ConsumerOption configures a Consumer.
type ConsumerOption func(*consumerConfig)

type consumerConfig struct {
	handlerTimeout time.Duration
}

// WithHandlerTimeout overrides DefaultHandlerTimeout.
func WithHandlerTimeout(d time.Duration) ConsumerOption {
	return func(c *consumerConfig) {
		if d > 0 {
			c.handlerTimeout = d
		}
	}
}

// Consumer decodes messages from one topic into T and hands them to a handler.
//
// A handler error nacks the message for redelivery. A payload that does not
// decode is acked and dropped, redelivering it cannot succeed.
type Consumer[T any] struct {
	subscriber     message.Subscriber
	topic          string
	handler        Handler[T]
	handlerTimeout time.Duration
	logger         *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewConsumer creates a consumer of topic.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
	opts ...ConsumerOption,
) *Consumer[T] {
	cfg := consumerConfig{handlerTimeout: DefaultHandlerTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer[T]{
		subscriber:     subscriber,
		topic:          topic,
		handler:        handler,
		handlerTimeout: cfg.handlerTimeout,
		logger:         logger.With(zap.String("topic", topic)),
		done:           make(chan struct{}),
	}
}

// Topic returns the topic this consumer subscribes to.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and processes messages in the background until Shutdown.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.cancel()
		close(c.done)

		return err
	}

	go c.run(ctx, msgs)

	return nil
}

func (c *Consumer[T]) run(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			if c.process(ctx, msg) {
				msg.Ack()
			} else {
				msg.Nack()
			}
		}
	}
}

// process reports whether msg is done with and may be acked.
func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) bool {
	logger := c.logger.With(zap.String("message_uuid", msg.UUID))

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logger.Error("dropping undecodable event", zap.Error(err))

		return true
	}

	ctx, cancel := context.WithTimeout(ctx, c.handlerTimeout)
	defer cancel()

	if err := c.handler(ctx, &event); err != nil {
		logger.Error("failed to handle event", zap.Error(err))

		return false
	}

	logger.Debug("processed event")

	return true
}

// Shutdown stops the consumer and waits for the in-flight message to complete.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
