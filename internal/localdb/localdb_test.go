package localdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "taskdeck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetSetting("missing")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, db.SetSetting("last_tab", "projects"))
	got, err = db.GetSetting("last_tab")
	require.NoError(t, err)
	assert.Equal(t, "projects", got)

	// Upsert replaces
	require.NoError(t, db.SetSetting("last_tab", "tasks"))
	got, err = db.GetSetting("last_tab")
	require.NoError(t, err)
	assert.Equal(t, "tasks", got)
}

func TestDeleteSetting(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SetSetting("session", "{}"))
	require.NoError(t, db.DeleteSetting("session"))

	got, err := db.GetSetting("session")
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.NoError(t, db.DeleteSetting("session"))
}
