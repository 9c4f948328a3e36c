// Package storage bootstraps the client's durable local store: an SQLite
// database whose schema is managed by embedded goose migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/docsum/internal/client/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// RunMigrations applies all pending migrations. It is safe to call repeatedly.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// InitDatabase opens the SQLite file at dsn and migrates it.
//
// A busy timeout lets several client processes share one file: the second
// writer waits instead of failing with SQLITE_BUSY.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure %s: %w", dsn, err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
