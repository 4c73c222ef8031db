package ratelimit_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Record(t *testing.T) {
	t.Run("counts requests inside the window", func(t *testing.T) {
		store := ratelimit.NewMemoryStore()

		for want := int64(1); want <= 3; want++ {
			count, err := store.Record(context.Background(), "client", time.Minute)

			require.NoError(t, err)
			assert.Equal(t, want, count)
		}
	})

	t.Run("drops requests older than the window", func(t *testing.T) {
		store := ratelimit.NewMemoryStore()

		_, err := store.Record(context.Background(), "client", 20*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(40 * time.Millisecond)

		count, err := store.Record(context.Background(), "client", 20*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("keeps keys apart", func(t *testing.T) {
		store := ratelimit.NewMemoryStore()

		_, _ = store.Record(context.Background(), "a", time.Minute)
		count, err := store.Record(context.Background(), "b", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, 2, store.Len())
	})

	t.Run("forgets idle keys once their window passes", func(t *testing.T) {
		store := ratelimit.NewMemoryStoreWithCleanup(5 * time.Millisecond)

		for i := range 50 {
			_, err := store.Record(context.Background(), fmt.Sprintf("client-%d", i), 10*time.Millisecond)
			require.NoError(t, err)
		}

		require.Equal(t, 50, store.Len())

		assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("extends a key while it stays active", func(t *testing.T) {
		store := ratelimit.NewMemoryStore()

		for range 3 {
			_, err := store.Record(context.Background(), "busy", 50*time.Millisecond)
			require.NoError(t, err)
			time.Sleep(20 * time.Millisecond)
		}

		assert.Equal(t, 1, store.Len())
	})
}
