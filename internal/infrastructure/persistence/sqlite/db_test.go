package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openDB(t *testing.T) *DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_, err = sqlDB.Exec("CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)
	return NewDB(sqlDB, zap.NewNop())
}

func count(t *testing.T, db *DB) int {
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM t").Scan(&n))
	return n
}

func TestWithTransaction_Commit(t *testing.T) {
	db := openDB(t)

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		_, err := db.Executor(ctx).ExecContext(ctx, "INSERT INTO t (v) VALUES (1)")
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, 1, count(t, db))
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := openDB(t)
	boom := errors.New("boom")

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		if _, err := db.Executor(ctx).ExecContext(ctx, "INSERT INTO t (v) VALUES (1)"); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count(t, db))
}

func TestWithTransaction_NestedJoinsOuter(t *testing.T) {
	db := openDB(t)

	err := db.WithTransaction(context.Background(), func(outer context.Context) error {
		return db.WithTransaction(outer, func(inner context.Context) error {
			assert.Same(t, extractTx(outer), extractTx(inner))
			_, err := db.Executor(inner).ExecContext(inner, "INSERT INTO t (v) VALUES (2)")
			return err
		})
	})

	require.NoError(t, err)
	assert.Equal(t, 1, count(t, db))
}

func TestExecutor_WithoutTransaction(t *testing.T) {
	db := openDB(t)

	_, isDB := db.Executor(context.Background()).(*sql.DB)

	assert.True(t, isDB)
}
