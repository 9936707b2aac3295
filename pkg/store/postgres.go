package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	postgresSchema = `CREATE TABLE IF NOT EXISTS lms_records (key TEXT PRIMARY KEY, value TEXT NOT NULL, updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`
	postgresGet    = `SELECT value FROM lms_records WHERE key = $1`
	postgresUpsert = `INSERT INTO lms_records (key, value, updated_at) VALUES ($1, $2, NOW()) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	postgresDelete = `DELETE FROM lms_records WHERE key = $1`
)

// PostgresBackend stores blobs as rows of a key/value table.
type PostgresBackend struct {
	db *sqlx.DB
}

// NewPostgresBackend wraps an open database handle.
func NewPostgresBackend(db *sqlx.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// EnsureSchema creates the records table when missing.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create lms_records: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	if err := b.db.GetContext(ctx, &value, postgresGet, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("select record %s: %w", key, err)
	}
	return []byte(value), nil
}

func (b *PostgresBackend) Put(ctx context.Context, key string, value []byte) error {
	if _, err := b.db.ExecContext(ctx, postgresUpsert, key, string(value)); err != nil {
		return fmt.Errorf("upsert record %s: %w", key, err)
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, postgresDelete, key); err != nil {
		return fmt.Errorf("delete record %s: %w", key, err)
	}
	return nil
}

func (b *PostgresBackend) Commit(ctx context.Context, writes []Write) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	for _, w := range writes {
		if w.Delete {
			_, err = tx.ExecContext(ctx, postgresDelete, w.Key)
		} else {
			_, err = tx.ExecContext(ctx, postgresUpsert, w.Key, string(w.Value))
		}
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write record %s: %w", w.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit records: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
