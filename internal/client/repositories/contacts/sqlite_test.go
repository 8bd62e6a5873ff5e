package contacts

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kymbms/name-card-manage/internal/client/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE contacts (
  namespace TEXT NOT NULL,
  id INTEGER NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  fax TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  website TEXT NOT NULL DEFAULT '',
  memo TEXT NOT NULL DEFAULT '',
  tags TEXT NOT NULL DEFAULT '[]',
  is_favorite INTEGER NOT NULL DEFAULT 0,
  color TEXT NOT NULL DEFAULT '',
  photo BLOB,
  card_front BLOB,
  card_back BLOB,
  orientation TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (namespace, id)
);
`)
	require.NoError(t, err)
	return db
}

func TestReplaceAllAndGetAll(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	records := []models.Contact{
		{ID: 1000, Name: "Kim", Tags: []string{"work"}, IsFavorite: true, Color: "#FF6B6B"},
		{ID: 2000, Name: "Lee", Photo: []byte{0x01, 0x02}, Orientation: models.OrientationPortrait},
	}
	require.NoError(t, r.ReplaceAll(ctx, "guest", records))

	got, err := r.GetAll(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// ordered by id descending
	assert.Equal(t, int64(2000), got[0].ID)
	assert.Equal(t, []byte{0x01, 0x02}, got[0].Photo)
	assert.Equal(t, models.OrientationPortrait, got[0].Orientation)
	assert.Equal(t, int64(1000), got[1].ID)
	assert.Equal(t, []string{"work"}, got[1].Tags)
	assert.True(t, got[1].IsFavorite)
}

func TestReplaceAll_ReplacesWholesale(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.ReplaceAll(ctx, "guest", []models.Contact{{ID: 1, Name: "old"}}))
	require.NoError(t, r.ReplaceAll(ctx, "guest", []models.Contact{{ID: 2, Name: "new"}}))

	got, err := r.GetAll(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestGetAll_NamespacesAreIsolated(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.ReplaceAll(ctx, "user-a", []models.Contact{{ID: 1, Name: "a"}}))
	require.NoError(t, r.ReplaceAll(ctx, "user-b", []models.Contact{{ID: 2, Name: "b"}}))

	a, err := r.GetAll(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, a, 1)
	assert.Equal(t, "a", a[0].Name)

	empty, err := r.GetAll(ctx, "user-c")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetAll_CorruptTagsFailSoft(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO contacts (namespace, id, name, tags) VALUES ('guest', 5, 'X', 'not-json')`)
	require.NoError(t, err)

	got, err := r.GetAll(ctx, "guest")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "X", got[0].Name)
	assert.Nil(t, got[0].Tags)
}

func TestPurge(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.ReplaceAll(ctx, "guest", []models.Contact{{ID: 1}}))
	require.NoError(t, r.ReplaceAll(ctx, "user-a", []models.Contact{{ID: 2}}))
	require.NoError(t, r.Purge(ctx, "guest"))

	got, err := r.GetAll(ctx, "guest")
	require.NoError(t, err)
	assert.Empty(t, got)

	kept, err := r.GetAll(ctx, "user-a")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}
