package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore persists pending orders in portal_pending_orders, created by
// db.CreateTables.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewPostgresStore(db *sql.DB, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: ttl, now: time.Now}
}

func (p *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM portal_pending_orders WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`,
		key, p.now().UTC(),
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error reading pending order %q: %w", key, err)
	}
	return value, true, nil
}

func (p *PostgresStore) Set(ctx context.Context, key, value string) error {
	var expires any
	if p.ttl > 0 {
		expires = p.now().UTC().Add(p.ttl)
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO portal_pending_orders (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`,
		key, value, expires, p.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("error saving pending order %q: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) Clear(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM portal_pending_orders WHERE key = $1`, key); err != nil {
		return fmt.Errorf("error clearing pending order %q: %w", key, err)
	}
	return nil
}

// PurgeExpired removes rows past their expiry and reports how many went.
func (p *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM portal_pending_orders WHERE expires_at IS NOT NULL AND expires_at <= $1`, p.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("error purging pending orders: %w", err)
	}
	return res.RowsAffected()
}
