package shortener_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/serroba/shortlink/internal/shortener"
)

var errMock = errors.New("connection refused")

const testURL = "https://example.com"

// countingStore records how often each store operation is hit.
type countingStore struct {
	shortener.Repository
	findByCode     atomic.Int64
	findByOriginal atomic.Int64
	creates        atomic.Int64
	exists         atomic.Int64
	alwaysAbsent   bool // ExistsByCode reports false regardless of contents
	hidden         map[shortener.Code]bool
}

func (c *countingStore) FindByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	c.findByCode.Add(1)

	return c.Repository.FindByCode(ctx, code)
}

func (c *countingStore) FindByOriginalURL(ctx context.Context, url string) (*shortener.ShortURL, error) {
	c.findByOriginal.Add(1)

	return c.Repository.FindByOriginalURL(ctx, url)
}

func (c *countingStore) Create(ctx context.Context, shortURL *shortener.ShortURL) error {
	c.creates.Add(1)

	return c.Repository.Create(ctx, shortURL)
}

func (c *countingStore) ExistsByCode(ctx context.Context, code shortener.Code) (bool, error) {
	c.exists.Add(1)

	if c.alwaysAbsent || c.hidden[code] {
		return false, nil
	}

	return c.Repository.ExistsByCode(ctx, code)
}

// failingStore fails every operation with err.
type failingStore struct {
	err error
}

func (f *failingStore) FindByCode(context.Context, shortener.Code) (*shortener.ShortURL, error) {
	return nil, f.err
}

func (f *failingStore) FindByOriginalURL(context.Context, string) (*shortener.ShortURL, error) {
	return nil, f.err
}

func (f *failingStore) Create(context.Context, *shortener.ShortURL) error {
	return f.err
}

func (f *failingStore) ExistsByCode(context.Context, shortener.Code) (bool, error) {
	return false, f.err
}

// failingCache fails every operation, like an unreachable Redis.
type failingCache struct{}

func (failingCache) OriginalByCode(context.Context, shortener.Code) (string, error) {
	return "", errMock
}

func (failingCache) CodeByOriginal(context.Context, string) (shortener.Code, error) {
	return "", errMock
}

func (failingCache) Store(context.Context, *shortener.ShortURL) error {
	return errMock
}

// blockingCache never answers until the caller's context expires.
type blockingCache struct{}

func (blockingCache) OriginalByCode(ctx context.Context, _ shortener.Code) (string, error) {
	<-ctx.Done()

	return "", ctx.Err()
}

func (blockingCache) CodeByOriginal(ctx context.Context, _ string) (shortener.Code, error) {
	<-ctx.Done()

	return "", ctx.Err()
}

func (blockingCache) Store(ctx context.Context, _ *shortener.ShortURL) error {
	<-ctx.Done()

	return ctx.Err()
}

// sequenceSource returns the given codes in order, then repeats the last one.
func sequenceSource(codes ...string) shortener.CodeSource {
	var (
		mu sync.Mutex
		i  int
	)

	return func() string {
		mu.Lock()
		defer mu.Unlock()

		code := codes[min(i, len(codes)-1)]
		i++

		return code
	}
}

// cyclingSource repeats codes in order forever.
func cyclingSource(codes ...string) shortener.CodeSource {
	var (
		mu sync.Mutex
		i  int
	)

	return func() string {
		mu.Lock()
		defer mu.Unlock()

		code := codes[i%len(codes)]
		i++

		return code
	}
}
