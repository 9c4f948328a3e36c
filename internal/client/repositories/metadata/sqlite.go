package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/docsum/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, ex dbx.DBTX, key string, value []byte) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func del(ctx context.Context, ex dbx.DBTX, key string) error {
	_, err := ex.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	return set(ctx, r.db, key, value)
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	return del(ctx, r.db, key)
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata`)
	if err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM metadata`)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate metadata rows: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) SetMany(ctx context.Context, values map[string][]byte) error {
	return r.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		for k, v := range values {
			if err := set(ctx, tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) DeleteMany(ctx context.Context, keys ...string) error {
	return r.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		for _, k := range keys {
			if err := del(ctx, tx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if err := dbx.WithTx(ctx, r.db, nil, fn); err != nil {
		return fmt.Errorf("metadata tx: %w", err)
	}
	return nil
}
