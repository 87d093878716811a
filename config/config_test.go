package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	os.Unsetenv("DB_DRIVER")
	t.Setenv("MUSIC_DIR", "/srv/music")
	t.Setenv("INDEX_WORKERS", "3")
	t.Setenv("REDIS_ENABLED", "true")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/srv/music", cfg.MusicDir)
	assert.Equal(t, 3, cfg.IndexWorkers)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, "en", cfg.SortLocale)
}

func TestLoadEnvFile(t *testing.T) {
	os.Unsetenv("SORT_LOCALE")
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SORT_LOCALE=sv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("SORT_LOCALE") })

	cfg := Load(path)
	assert.Equal(t, "sv", cfg.SortLocale)
}

func TestGetEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("ATLAS_TEST_INT", "many")
	assert.Equal(t, 7, getEnvInt("ATLAS_TEST_INT", 7))
}
