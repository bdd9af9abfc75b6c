package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS steamsync_account_settings (
	account TEXT NOT NULL,
	key     TEXT NOT NULL,
	value   TEXT NOT NULL,
	PRIMARY KEY (account, key)
)`

// querier is the subset of *pgxpool.Pool and pgx.Tx the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps settings for many accounts in one table, one row per
// (account, key).
type PostgresStore struct {
	db      querier
	account string
}

// NewPostgresStore creates a store for account. db is usually a
// *pgxpool.Pool shared by every account.
func NewPostgresStore(db querier, account string) *PostgresStore {
	return &PostgresStore{db: db, account: account}
}

// NewPostgresPool opens a pool and makes sure the settings table exists.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// EnsureSchema creates the settings table if needed.
func EnsureSchema(ctx context.Context, db querier) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
func (p *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRow(ctx,
		"SELECT value FROM steamsync_account_settings WHERE account = $1 AND key = $2",
		p.account, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key.
func (p *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO steamsync_account_settings (account, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (account, key) DO UPDATE SET value = EXCLUDED.value`,
		p.account, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := p.db.Exec(ctx,
		"DELETE FROM steamsync_account_settings WHERE account = $1 AND key = $2",
		p.account, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
