// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/oauthfilter/pkg/api"
	"github.com/rhuss/oauthfilter/pkg/storage"
)

// PostgreSQL error codes.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if _, err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// FindConsumerByKey loads a consumer by its key.
func (s *Store) FindConsumerByKey(ctx context.Context, key string) (*api.Consumer, error) {
	var (
		c           api.Consumer
		callbackURL *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT key, secret, name, callback_url, created_at
		FROM consumers WHERE key = $1
	`, key).Scan(&c.Key, &c.Secret, &c.Name, &callbackURL, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying consumer: %w", err)
	}
	if callbackURL != nil {
		c.CallbackURL = *callbackURL
	}
	return &c, nil
}

// FindToken loads a token by value, optionally restricted to one consumer.
func (s *Store) FindToken(ctx context.Context, value string, consumer *api.Consumer) (*api.Token, error) {
	query := `
		SELECT token, secret, kind, consumer_key, scope,
		       authorized_at, invalidated_at, expires_at, created_at
		FROM tokens WHERE token = $1`
	args := []any{value}

	if consumer != nil {
		query += " AND consumer_key = $2"
		args = append(args, consumer.Key)
	}

	var (
		t     api.Token
		kind  string
		scope *string
	)
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&t.Value, &t.Secret, &kind, &t.ConsumerKey, &scope,
		&t.AuthorizedAt, &t.InvalidatedAt, &t.ExpiresAt, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying token: %w", err)
	}

	t.Kind, err = api.ParseTokenKind(kind)
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", value, err)
	}
	if scope != nil {
		t.Scope = *scope
	}
	return &t, nil
}

// SaveConsumer inserts a consumer.
func (s *Store) SaveConsumer(ctx context.Context, c *api.Consumer) error {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO consumers (key, secret, name, callback_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.Key, c.Secret, c.Name, nullString(c.CallbackURL), createdAt)
	if err != nil {
		if hasCode(err, codeUniqueViolation) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting consumer: %w", err)
	}
	return nil
}

// SaveToken inserts a token. The owning consumer must exist.
func (s *Store) SaveToken(ctx context.Context, t *api.Token) error {
	kind := t.Kind
	if kind == "" {
		kind = api.TokenKindAccess
	}
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (
			token, secret, kind, consumer_key, scope,
			authorized_at, invalidated_at, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		t.Value, t.Secret, string(kind), t.ConsumerKey, nullString(t.Scope),
		t.AuthorizedAt, t.InvalidatedAt, t.ExpiresAt, createdAt,
	)
	if err != nil {
		switch {
		case hasCode(err, codeUniqueViolation):
			return storage.ErrConflict
		case hasCode(err, codeForeignKeyViolation):
			return storage.ErrNotFound
		}
		return fmt.Errorf("inserting token: %w", err)
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// nullString converts an empty string to nil for nullable TEXT columns.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
