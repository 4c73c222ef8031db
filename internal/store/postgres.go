package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/serroba/shortlink/internal/shortener"
)

const (
	uniqueViolation       = "23505"
	urlHashConstraintName = "short_urls_url_hash_key"
)

// Querier is the subset of *pgxpool.Pool used by PostgresStore.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	db Querier
}

// NewPostgresStore creates a new PostgreSQL-backed URL store.
func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, shortURL *shortener.ShortURL) error {
	query := `
		INSERT INTO short_urls (code, original_url, url_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	hash := shortURL.URLHash
	if hash == "" {
		hash = shortener.HashURL(shortURL.OriginalURL)
	}

	_, err := p.db.Exec(ctx, query,
		string(shortURL.Code),
		shortURL.OriginalURL,
		string(hash),
		shortURL.CreatedAt,
	)

	return conflictErr(err)
}

func (p *PostgresStore) FindByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	query := `
		SELECT code, original_url, url_hash, created_at
		FROM short_urls
		WHERE code = $1
	`

	return scanShortURL(p.db.QueryRow(ctx, query, string(code)))
}

func (p *PostgresStore) FindByOriginalURL(ctx context.Context, originalURL string) (*shortener.ShortURL, error) {
	query := `
		SELECT code, original_url, url_hash, created_at
		FROM short_urls
		WHERE url_hash = $1 AND original_url = $2
	`

	return scanShortURL(p.db.QueryRow(ctx, query, string(shortener.HashURL(originalURL)), originalURL))
}

func (p *PostgresStore) ExistsByCode(ctx context.Context, code shortener.Code) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM short_urls WHERE code = $1)`

	var exists bool
	if err := p.db.QueryRow(ctx, query, string(code)).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func scanShortURL(row pgx.Row) (*shortener.ShortURL, error) {
	var (
		code, originalURL, urlHash string
		createdAt                  time.Time
	)

	if err := row.Scan(&code, &originalURL, &urlHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return &shortener.ShortURL{
		Code:        shortener.Code(code),
		OriginalURL: originalURL,
		URLHash:     shortener.URLHash(urlHash),
		CreatedAt:   createdAt,
	}, nil
}

// conflictErr maps unique violations to the shortener conflict errors.
func conflictErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}

	if pgErr.ConstraintName == urlHashConstraintName {
		return shortener.ErrURLConflict
	}

	return shortener.ErrCodeConflict
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
