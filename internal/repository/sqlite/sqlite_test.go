package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "vocab_app_backup_mode_v1"

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "vocabdeck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStateRepo_RoundTrip(t *testing.T) {
	db := openTemp(t)
	repo := NewStateRepo(db.DB)

	data, err := repo.LoadState(testKey)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, repo.SaveState(testKey, []byte(`{"version":1,"words":[],"counts":{}}`)))
	require.NoError(t, repo.SaveState(testKey, []byte(`{"version":1,"words":[],"counts":{"a":2}}`)))

	data, err = repo.LoadState(testKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"words":[],"counts":{"a":2}}`, string(data))

	other, err := repo.LoadState("other")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestOpen_SecondProcessIsLockedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocabdeck.db")
	db, err := Open(path)
	require.NoError(t, err)

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in use")

	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, reopened.Path())
	require.NoError(t, reopened.Close())
}

func TestInitDB_IsIdempotent(t *testing.T) {
	db := openTemp(t)
	assert.NoError(t, InitDB(db.DB))
}
