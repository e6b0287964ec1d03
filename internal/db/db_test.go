package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noriskclient/launcherd/internal/common/config"
)

func TestOpenSQLite_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "launcher.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping())
	assert.FileExists(t, path)
}

func TestOpen_Drivers(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.Nil(t, db)

	_, err = Open(config.DatabaseConfig{Driver: "mongo"})
	assert.Error(t, err)

	db, err = Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", db.DriverName())
	_ = db.Close()
}
