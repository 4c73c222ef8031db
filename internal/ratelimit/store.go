package ratelimit

import (
	"context"
	"time"
)

// Store counts requests per key over a sliding window.
type Store interface {
	// Record adds one request at the current time, drops entries older than
	// window and returns how many remain, the new one included.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
