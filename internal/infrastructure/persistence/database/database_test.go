package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnection_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instance", "cmi_charts.db")
	db, err := NewConnection(DriverSQLite, path)
	require.NoError(t, err)
	defer db.Close()
	assert.FileExists(t, path)

	tc := NewTableCreator()
	require.NoError(t, tc.Initialize(db.DB))
	require.NoError(t, tc.Initialize(db.DB))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM actions`).Scan(&count))
	assert.Equal(t, 2, count)

	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM actions WHERE id = 2`).Scan(&name))
	assert.Equal(t, "logout", name)

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestPrepareDSN(t *testing.T) {
	dir := t.TempDir()

	dsn, err := prepareDSN(DriverSQLite, filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.db")+"?_foreign_keys=on", dsn)

	dsn, err = prepareDSN(DriverSQLite, filepath.Join(dir, "b.db")+"?cache=shared")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b.db")+"?cache=shared&_foreign_keys=on", dsn)

	dsn, err = prepareDSN(DriverLibSQL, "libsql://db.turso.io?authToken=x")
	require.NoError(t, err)
	assert.Equal(t, "libsql://db.turso.io?authToken=x", dsn)

	_, err = prepareDSN("postgres", "x")
	assert.Error(t, err)
}
