package messaging_test

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	var adapter watermill.LoggerAdapter = messaging.NewZapLogger(zap.New(core))

	adapter.Info("subscribed", watermill.LogFields{"topic": "link.created"})
	adapter.Error("publish failed", errors.New("boom"), nil)
	adapter.Trace("tick", nil)
	adapter.With(watermill.LogFields{"consumer": "warmer"}).Debug("ready", nil)

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "link.created", entries[0].ContextMap()["topic"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])

	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)

	assert.Equal(t, "ready", entries[3].Message)
	assert.Equal(t, "warmer", entries[3].ContextMap()["consumer"])
}
