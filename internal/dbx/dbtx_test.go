package dbx

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "dbx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n))
	return n
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('a'), ('b')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 2, countRows(t, db))
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('first')`)
		require.NoError(t, e)
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, countRows(t, db), "first insert must be rolled back")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	require.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('panic')`)
			require.NoError(t, e)
			panic("kaput")
		})
	})
	require.Equal(t, 0, countRows(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "begin tx")
	require.False(t, called)
}
