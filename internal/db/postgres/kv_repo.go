package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"Wire/internal/kv"
)

type postgresKVStore struct {
	db *sql.DB
}

// NewKVStore creates the primary durable kv.Store on PostgreSQL.
// TTL is enforced on read; SweepExpired reclaims storage.
func NewKVStore(db *sql.DB) kv.Store {
	return &postgresKVStore{db: db}
}

func (s *postgresKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value FROM kv_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, nil
}

func (s *postgresKVStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(ttl), Valid: true}
	}

	query := `
		INSERT INTO kv_entries (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`

	if _, err := s.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to put key %q: %w", key, err)
	}
	return nil
}

func (s *postgresKVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// List scans keys in lexicographic order; the cursor is the last key of the
// previous page. The index on key makes the resume a range seek.
func (s *postgresKVStore) List(ctx context.Context, prefix string, limit int, cursor string) ([]string, string, bool, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT key FROM kv_entries
		WHERE key LIKE $1 || '%' AND key > $2
		  AND (expires_at IS NULL OR expires_at > now())
		ORDER BY key
		LIMIT $3`

	// Fetch one extra row to learn whether the scan is exhausted.
	rows, err := s.db.QueryContext(ctx, query, prefix, cursor, limit+1)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to list prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	keys := make([]string, 0, limit)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, "", false, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, "", false, err
	}

	done := len(keys) <= limit
	if !done {
		keys = keys[:limit]
	}
	next := ""
	if !done && len(keys) > 0 {
		next = keys[len(keys)-1]
	}
	return keys, next, done, nil
}

// SweepExpired hard-deletes entries whose TTL elapsed. Run by the daily
// compaction job.
func (s *postgresKVStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
