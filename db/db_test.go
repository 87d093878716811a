package db

import (
	"path/filepath"
	"testing"

	"Atlas/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probe struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func TestMySQLDSN(t *testing.T) {
	cfg := &config.Config{DBUser: "atlas", DBPassword: "secret", DBHost: "db", DBPort: "3307", DBName: "music"}
	dsn := MySQLDSN(cfg)
	assert.Contains(t, dsn, "atlas:secret@tcp(db:3307)/music")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "atlas.db")
	gdb, err := Open(&config.Config{DBDriver: "sqlite", SQLitePath: path}, &probe{})
	require.NoError(t, err)
	defer Close(gdb)

	require.NoError(t, gdb.Create(&probe{ID: "a", Name: "x"}).Error)
	var got probe
	require.NoError(t, gdb.First(&got, "id = ?", "a").Error)
	assert.Equal(t, "x", got.Name)
	assert.FileExists(t, path)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "oracle"})
	assert.ErrorContains(t, err, "unsupported")
}
