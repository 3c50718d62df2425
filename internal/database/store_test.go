package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*sqlx.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "glossary.db")
	db, err := Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db) })
	return db, path
}

func seedTerm(t *testing.T, db *sqlx.DB, term string, description, prereqs any) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO GLOSSARY (TERM, DESCRIPTION, PREREQS) VALUES (?, ?, ?)`, term, description, prereqs)
	require.NoError(t, err)
}

func TestCreateAndOpen(t *testing.T) {
	db, path := newTestDB(t)
	seedTerm(t, db, "cloud", "A pool of compute.", "")
	CloseDB(db)

	reopened, err := Open(path)
	require.NoError(t, err)
	defer CloseDB(reopened)

	store := NewStore(reopened, nil)
	require.NoError(t, store.Ping(context.Background()))

	entry, err := store.LookupTerm(context.Background(), "cloud")
	require.NoError(t, err)
	assert.Equal(t, "A pool of compute.", entry.Description.String)
}

func TestCreateRefusesExistingFile(t *testing.T) {
	_, path := newTestDB(t)

	_, err := Create(path)
	assert.ErrorIs(t, err, ErrStoreExists)
}

func TestOpenMissingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "glossary.db")

	_, err := Open(path)
	require.ErrorIs(t, err, ErrStoreNotFound)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "Open must not create the store")
}

func TestOpenRejectsDirectoryAndGarbage(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(dir)
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.db")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not a sqlite database, just some text padding it out"), 0o600))
	_, err = Open(garbage)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrStoreNotFound)
}

func TestLookupTerm(t *testing.T) {
	db, _ := newTestDB(t)
	seedTerm(t, db, "cloud", "A pool of compute.", "Basic networking")
	seedTerm(t, db, "blueprint", nil, nil)
	store := NewStore(db, nil)
	ctx := context.Background()

	t.Run("exact match", func(t *testing.T) {
		entry, err := store.LookupTerm(ctx, "cloud")
		require.NoError(t, err)
		assert.Equal(t, "cloud", entry.Term)
		assert.Equal(t, "A pool of compute.", entry.Description.String)
		assert.Equal(t, "Basic networking", entry.Prerequisites.String)
	})

	t.Run("case sensitive", func(t *testing.T) {
		_, err := store.LookupTerm(ctx, "Cloud")
		assert.ErrorIs(t, err, ErrTermNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.LookupTerm(ctx, "unknownterm")
		assert.ErrorIs(t, err, ErrTermNotFound)
	})

	t.Run("null columns", func(t *testing.T) {
		entry, err := store.LookupTerm(ctx, "blueprint")
		require.NoError(t, err)
		assert.False(t, entry.Description.Valid)
		assert.Equal(t, "", entry.Description.String)
		assert.False(t, entry.Prerequisites.Valid)
	})
}

func TestRunInfoLifecycle(t *testing.T) {
	db, _ := newTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	info, err := store.GetRunInfo(ctx, LastRunKey)
	require.NoError(t, err)
	assert.Nil(t, info)

	require.Error(t, store.UpdateRunInfo(ctx, LastRunKey, "2026-01-01T00:00:00.000Z"))

	require.NoError(t, store.InsertRunInfo(ctx, LastRunKey, "2026-01-01T00:00:00.000Z"))
	assert.Error(t, store.InsertRunInfo(ctx, LastRunKey, "again"), "NAME is unique")

	info, err = store.GetRunInfo(ctx, LastRunKey)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "2026-01-01T00:00:00.000Z", info.Value.String)

	require.NoError(t, store.UpdateRunInfo(ctx, LastRunKey, "2026-02-01T00:00:00.000Z"))
	info, err = store.GetRunInfo(ctx, LastRunKey)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01T00:00:00.000Z", info.Value.String)

	_, err = store.GetRunInfo(ctx, "")
	assert.Error(t, err)
}

func TestQueryErrorsOnBrokenSchema(t *testing.T) {
	db, _ := newTestDB(t)
	_, err := db.Exec(`DROP TABLE GLOSSARY`)
	require.NoError(t, err)
	store := NewStore(db, nil)

	_, err = store.LookupTerm(context.Background(), "cloud")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTermNotFound)
}

func TestRunSQLMaintenance(t *testing.T) {
	db, _ := newTestDB(t)
	store := NewStore(db, nil)

	require.NoError(t, store.RunSQLMaintenance(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.RunSQLMaintenance(ctx), context.Canceled)
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "data/glossary.db", ExtractDBNameFromPath("data/glossary.db"))
	assert.Equal(t, "data/glossary.db", ExtractDBNameFromPath("file:data/glossary.db?_pragma=busy_timeout(5000)"))
	assert.Equal(t, "my terms.db", ExtractDBNameFromPath("file:my%20terms.db"))
}
