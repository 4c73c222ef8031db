package shortener

import (
	"context"
	"fmt"

	"github.com/jaevor/go-nanoid"
)

// Alphabet is the set of characters codes are drawn from.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// DefaultMaxAttempts bounds how many candidates Generate tries before giving up.
const DefaultMaxAttempts = 10

// CodeSource produces random candidate codes.
type CodeSource func() string

// NewNanoIDSource returns a crypto-random source of fixed-length alphanumeric codes.
func NewNanoIDSource(length int) (CodeSource, error) {
	gen, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, fmt.Errorf("create nanoid generator: %w", err)
	}

	return gen, nil
}

// Generator hands out codes that were unassigned at the time of the check.
// The store's uniqueness constraint remains the final arbiter.
type Generator struct {
	store       Repository
	source      CodeSource
	maxAttempts int
}

// NewGenerator creates a generator; maxAttempts <= 0 uses DefaultMaxAttempts.
func NewGenerator(store Repository, source CodeSource, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Generator{
		store:       store,
		source:      source,
		maxAttempts: maxAttempts,
	}
}

// MaxAttempts returns the attempt budget of a single Generate call.
func (g *Generator) MaxAttempts() int {
	return g.maxAttempts
}

// Generate returns a code not currently present in the store.
func (g *Generator) Generate(ctx context.Context) (Code, error) {
	for range g.maxAttempts {
		code, free, err := g.next(ctx)
		if err != nil {
			return "", err
		}

		if free {
			return code, nil
		}
	}

	return "", fmt.Errorf("%w (%d)", ErrCodeExhausted, g.maxAttempts)
}

// next draws one candidate and reports whether it is unassigned.
func (g *Generator) next(ctx context.Context) (Code, bool, error) {
	code := Code(g.source())

	exists, err := g.store.ExistsByCode(ctx, code)
	if err != nil {
		return "", false, storeErr("check code", err)
	}

	return code, !exists, nil
}
