package markers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE sync_markers (identity TEXT NOT NULL PRIMARY KEY, migrated_at TIMESTAMP NOT NULL);`)
	require.NoError(t, err)
	return db
}

func TestSetAndIsSet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	set, err := r.IsSet(ctx, "user-a")
	require.NoError(t, err)
	assert.False(t, set)

	require.NoError(t, r.Set(ctx, "user-a"))

	set, err = r.IsSet(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, set)

	// other identities unaffected
	set, err = r.IsSet(ctx, "user-b")
	require.NoError(t, err)
	assert.False(t, set)
}

func TestSet_Idempotent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "user-a"))
	require.NoError(t, r.Set(ctx, "user-a"))

	set, err := r.IsSet(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, set)
}
