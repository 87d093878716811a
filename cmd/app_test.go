package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"Atlas/config"
	"Atlas/core/library"
	"Atlas/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DBDriver:       "sqlite",
		SQLitePath:     filepath.Join(dir, "data", "atlas.db"),
		ArtworkBackend: "local",
		ArtworkDir:     filepath.Join(dir, "artwork"),
		MusicDir:       filepath.Join(dir, "Music"),
		AudiobooksDir:  filepath.Join(dir, "Audiobooks"),
		PodcastsDir:    filepath.Join(dir, "Podcasts"),
		IndexWorkers:   2,
		SortLocale:     "en",
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	// not real audio: extraction fails and the file name is used
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0o644))
}

func TestIndexSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	writeFile(t, filepath.Join(cfg.MusicDir, "Portishead", "Dummy", "01 - Mysterons.mp3"))
	writeFile(t, filepath.Join(cfg.MusicDir, "Portishead", "Dummy", "02 - Sour Times.mp3"))

	a, err := openApp(ctx, cfg, true)
	require.NoError(t, err)
	lib, err := library.New(model.LibraryMusic, "", cfg.MusicDir, "", a.env)
	require.NoError(t, err)
	assert.Equal(t, ".", lib.RelativePath)
	require.NoError(t, a.store.SaveLibrary(ctx, lib.Descriptor()))
	a.libs.Add(lib)
	require.NoError(t, indexOne(ctx, a, lib))
	first := a.cart.Counts()
	a.close()
	assert.Equal(t, 1, first.Artists)
	assert.Equal(t, 1, first.Albums)
	assert.Equal(t, 2, first.Tracks)

	b, err := openApp(ctx, cfg, false)
	require.NoError(t, err)
	defer b.close()
	assert.Equal(t, first, b.cart.Counts())

	restored, err := b.libs.Get(lib.ID)
	require.NoError(t, err)
	assert.True(t, restored.Available())
	t1, err := b.cart.FindTrackByPath(lib.ID, "Portishead/Dummy/02 - Sour Times.mp3")
	require.NoError(t, err)
	assert.Equal(t, "Sour Times", t1.Title)
	assert.Equal(t, 2, t1.Position)

	// a rescan after restart reuses the stored ids
	require.NoError(t, indexOne(ctx, b, restored))
	again, err := b.cart.FindTrackByPath(lib.ID, "Portishead/Dummy/02 - Sour Times.mp3")
	require.NoError(t, err)
	assert.Equal(t, t1.ID, again.ID)
	assert.Equal(t, first, b.cart.Counts())
}

func TestSelectLibraries(t *testing.T) {
	cfg := testConfig(t)
	a, err := openApp(context.Background(), cfg, false)
	require.NoError(t, err)
	defer a.close()

	_, err = a.selectLibraries([]string{"nope"})
	assert.Error(t, err)
	_, err = a.selectLibraries([]string{model.NewID().String()})
	assert.ErrorIs(t, err, model.ErrNotFound)
	libs, err := a.selectLibraries(nil)
	require.NoError(t, err)
	assert.Empty(t, libs)
}
