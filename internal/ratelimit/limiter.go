// Package ratelimit implements sliding-window request limits keyed by client.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// MetadataKey is the huma operation metadata key holding a []Limit.
const MetadataKey = "rateLimit"

// Limit allows at most Max requests per Window.
type Limit struct {
	Window time.Duration
	Max    int64
}

func (l Limit) String() string {
	return fmt.Sprintf("%d/%s", l.Max, l.Window)
}

// Exceeded describes the limit a request ran into.
type Exceeded struct {
	Limit Limit
	Count int64
}

// Limiter checks requests against a set of limits.
type Limiter struct {
	store    Store
	defaults []Limit
}

// NewLimiter creates a limiter. defaults apply to operations that declare no limits.
func NewLimiter(store Store, defaults ...Limit) *Limiter {
	return &Limiter{store: store, defaults: defaults}
}

// Allow records the request under every applicable limit and reports the first
// one exceeded, or nil if the request may proceed.
func (l *Limiter) Allow(ctx context.Context, clientKey, route string, limits []Limit) (*Exceeded, error) {
	if len(limits) == 0 {
		limits = l.defaults
	}

	for _, limit := range limits {
		key := fmt.Sprintf("ratelimit:%s:%s:%d", clientKey, route, limit.Window.Milliseconds())

		count, err := l.store.Record(ctx, key, limit.Window)
		if err != nil {
			return nil, err
		}

		if count > limit.Max {
			return &Exceeded{Limit: limit, Count: count}, nil
		}
	}

	return nil, nil
}

// OperationLimits returns the limits attached to op, or nil.
func OperationLimits(op *huma.Operation) []Limit {
	if op == nil || op.Metadata == nil {
		return nil
	}

	limits, _ := op.Metadata[MetadataKey].([]Limit)

	return limits
}
