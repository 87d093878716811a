package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"Atlas/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtinEnv(t *testing.T) (Env, string) {
	t.Helper()
	anchor := t.TempDir()
	return Env{Anchors: map[model.LibraryType]string{model.LibraryMusic: anchor}}, anchor
}

func TestBuiltinLibraryRelativeToAnchor(t *testing.T) {
	env, anchor := builtinEnv(t)
	root := filepath.Join(anchor, "Rock")
	require.NoError(t, os.MkdirAll(root, 0o755))

	lib, err := New(model.LibraryMusic, "", root, "", env)
	require.NoError(t, err)
	assert.Equal(t, "Rock", lib.RelativePath)
	assert.Equal(t, "Rock", lib.Name)
	assert.True(t, lib.IndexOnCreate)
	assert.True(t, lib.Available())

	rel, err := lib.RelativePathOf(filepath.Join(root, "Artist", "Album", "01.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "Artist/Album/01.mp3", rel)

	abs, err := lib.AbsolutePathOf(rel)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Artist", "Album", "01.mp3"), abs)

	_, err = lib.RelativePathOf("/elsewhere/file.mp3")
	assert.ErrorIs(t, err, ErrOutsideLibrary)
}

func TestBuiltinLibraryOutsideAnchorKeepsAbsolutePath(t *testing.T) {
	env, _ := builtinEnv(t)
	root := t.TempDir()

	lib, err := New(model.LibraryMusic, "", root, "Mine", env)
	require.NoError(t, err)
	assert.Equal(t, root, lib.RelativePath)
	got, ok := lib.Root()
	assert.True(t, ok)
	assert.Equal(t, root, got)
}

func TestVolumeLibrarySurvivesRemount(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	for _, mp := range []string{first, second} {
		require.NoError(t, os.MkdirAll(filepath.Join(mp, "media", "music"), 0o755))
	}

	vols := StaticVolumes{"abcd-1234": first}
	env := Env{Volumes: vols}
	lib, err := New(model.LibraryMusic, "abcd-1234", filepath.Join(first, "media", "music"), "USB", env)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("media", "music"), lib.RelativePath)

	delete(vols, "abcd-1234")
	err = lib.ResolveRoot()
	assert.ErrorIs(t, err, model.ErrUnavailable)
	assert.False(t, lib.Available())
	_, err = lib.AbsolutePathOf("a.mp3")
	assert.ErrorIs(t, err, model.ErrUnavailable)

	vols["abcd-1234"] = second
	require.NoError(t, lib.ResolveRoot())
	abs, err := lib.AbsolutePathOf("a.mp3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(second, "media", "music", "a.mp3"), abs)
}

func TestNewVolumeLibraryRequiresMount(t *testing.T) {
	_, err := New(model.LibraryMusic, "missing", "/mnt/x", "", Env{Volumes: StaticVolumes{}})
	assert.True(t, errors.Is(err, model.ErrUnavailable))
}

func TestFromDescriptorKeepsIdentity(t *testing.T) {
	env, anchor := builtinEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(anchor, "Jazz"), 0o755))
	d := Descriptor{ID: model.NewID(), Type: model.LibraryMusic, RelativePath: "Jazz", Name: "Jazz"}

	lib := FromDescriptor(d, env)
	assert.Equal(t, d, lib.Descriptor())
	assert.False(t, lib.IndexOnCreate)
	assert.True(t, lib.Available())
}

func TestRegistryResolveTrackPathSkipsUnavailable(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	vols := StaticVolumes{"vol-a": a, "vol-b": b}
	env := Env{Volumes: vols}

	libA, err := New(model.LibraryMusic, "vol-a", a, "A", env)
	require.NoError(t, err)
	libB, err := New(model.LibraryMusic, "vol-b", b, "B", env)
	require.NoError(t, err)

	reg := NewRegistry()
	reg.Add(libA)
	reg.Add(libB)
	assert.False(t, reg.Add(libA))

	track := model.NewTrack(model.NewID(), model.NilID)
	track.SetPath(libA.ID, "x/1.mp3")
	track.SetPath(libB.ID, "y/1.mp3")

	got, err := reg.ResolveTrackPath(track)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(a, "x", "1.mp3"), got)

	delete(vols, "vol-a")
	got, err = reg.ResolveTrackPath(track)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(b, "y", "1.mp3"), got)

	delete(vols, "vol-b")
	_, err = reg.ResolveTrackPath(track)
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestRegistryLocate(t *testing.T) {
	env, anchor := builtinEnv(t)
	lib, err := New(model.LibraryMusic, "", anchor, "Music", env)
	require.NoError(t, err)
	reg := NewRegistry()
	reg.Add(lib)

	found, rel, err := reg.Locate(filepath.Join(anchor, "A", "B", "c.flac"))
	require.NoError(t, err)
	assert.Equal(t, lib.ID, found.ID)
	assert.Equal(t, "A/B/c.flac", rel)

	_, _, err = reg.Locate("/nowhere/c.flac")
	assert.ErrorIs(t, err, ErrOutsideLibrary)
}

func TestLinuxVolumesReadsMountTable(t *testing.T) {
	dir := t.TempDir()
	dev := filepath.Join(dir, "sdb1")
	require.NoError(t, os.WriteFile(dev, nil, 0o644))
	byUUID := filepath.Join(dir, "by-uuid")
	require.NoError(t, os.Mkdir(byUUID, 0o755))
	require.NoError(t, os.Symlink(dev, filepath.Join(byUUID, "1234-ABCD")))

	mounts := filepath.Join(dir, "mounts")
	table := "proc /proc proc rw 0 0\n" + dev + " /media/My\\040Disk vfat rw 0 0\n"
	require.NoError(t, os.WriteFile(mounts, []byte(table), 0o644))

	v := LinuxVolumes{ByUUIDDir: byUUID, MountsFile: mounts}
	mp, err := v.MountPoint("1234-ABCD")
	require.NoError(t, err)
	assert.Equal(t, "/media/My Disk", mp)

	_, err = v.MountPoint("FFFF-0000")
	assert.ErrorIs(t, err, model.ErrUnavailable)
}
