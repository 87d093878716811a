package repository

import (
	"context"
	"testing"

	"Atlas/core/cartographer"
	"Atlas/core/library"
	"Atlas/core/playlist"
	"Atlas/db"
	"Atlas/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *GormStore {
	t.Helper()
	gdb, err := db.OpenMemory(Models()...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(gdb) })
	return NewGormStore(gdb)
}

type graph struct {
	lib    library.Descriptor
	usb    library.Descriptor
	artist model.Artist
	loose  model.Artist
	album  model.Album
	tracks []model.Track
	single model.Track
}

func seed(t *testing.T, s *GormStore) graph {
	t.Helper()
	ctx := context.Background()
	g := graph{
		lib: library.Descriptor{ID: model.NewID(), Type: model.LibraryMusic, RelativePath: ".", Name: "Music"},
		usb: library.Descriptor{ID: model.NewID(), Type: model.LibraryMusic, StorageUUID: "1234-ABCD", RelativePath: "music", Name: "USB"},
	}
	require.NoError(t, s.SaveLibrary(ctx, g.lib))
	require.NoError(t, s.SaveLibrary(ctx, g.usb))

	g.artist = model.NewArtist("Nina Simone", "/music/Nina Simone", model.LibraryMusic)
	g.loose = model.NewArtist("Unknown Artist", "/music", model.LibraryMusic)
	require.NoError(t, s.SaveArtist(ctx, g.artist))
	require.NoError(t, s.SaveArtist(ctx, g.loose))

	g.album = model.NewAlbum(g.artist.ID, "Pastel Blues")
	g.album.Year = 1965
	g.album.Genres = []string{"Jazz", "Blues"}
	require.NoError(t, s.SaveAlbum(ctx, g.album))

	for i, title := range []string{"Be My Husband", "Sinnerman"} {
		tr := model.NewTrack(g.artist.ID, g.album.ID)
		tr.Title = title
		tr.Position = i + 1
		tr.Duration = 180 + i
		tr.SetPath(g.usb.ID, "Nina Simone/Pastel Blues/"+title+".flac")
		tr.SetPath(g.lib.ID, "Nina Simone/Pastel Blues/"+title+".flac")
		require.NoError(t, s.SaveTrack(ctx, tr))
		g.tracks = append(g.tracks, tr)
	}

	g.single = model.NewTrack(g.loose.ID, model.NilID)
	g.single.Title = "Loose"
	g.single.SetPath(g.lib.ID, "loose.mp3")
	require.NoError(t, s.SaveTrack(ctx, g.single))
	return g
}

func TestHydrateRestoresGraph(t *testing.T) {
	s := newStore(t)
	g := seed(t, s)
	ctx := context.Background()

	src := cartographer.New(nil)
	p := playlist.New("Favourites", src)
	p.Add(g.tracks[1].ID, g.tracks[0].ID)
	p.Next()
	p.SetRepeat(true)
	require.NoError(t, s.SavePlaylist(ctx, p.Snapshot()))

	eph := playlist.NewEphemeral("Now", src, []model.ID{g.tracks[0].ID})
	require.NoError(t, s.SavePlaylist(ctx, eph.Snapshot()))

	cart := cartographer.New(nil)
	reg := library.NewRegistry()
	env := library.Env{Anchors: map[model.LibraryType]string{model.LibraryMusic: t.TempDir()}}
	st, err := Hydrate(ctx, s, cart, reg, env)
	require.NoError(t, err)
	assert.Equal(t, HydrateStats{Libraries: 2, Artists: 2, Albums: 1, Tracks: 3, Playlists: 1}, st)

	usb, err := reg.Get(g.usb.ID)
	require.NoError(t, err)
	assert.Equal(t, g.usb, usb.Descriptor())
	assert.False(t, usb.Available(), "volume without a resolver is unavailable")

	ar, err := cart.GetArtist(g.artist.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{g.album.ID}, ar.Albums)

	al, err := cart.GetAlbum(g.album.ID)
	require.NoError(t, err)
	assert.Equal(t, 1965, al.Year)
	assert.Equal(t, []string{"Jazz", "Blues"}, al.Genres)
	assert.ElementsMatch(t, []model.ID{g.tracks[0].ID, g.tracks[1].ID}, al.Tracks)

	tr, err := cart.GetTrack(g.tracks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, g.tracks[0].Paths, tr.Paths, "path order survives")
	assert.Equal(t, 180, tr.Duration)

	loose, err := cart.GetArtist(g.loose.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{g.single.ID}, loose.Tracks)
	found, err := cart.FindTrackByPath(g.lib.ID, "loose.mp3")
	require.NoError(t, err)
	assert.Equal(t, g.single.ID, found.ID)

	restored, err := cart.GetPlaylist(p.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{g.tracks[1].ID, g.tracks[0].ID}, restored.Queue())
	cur, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, g.tracks[1].ID, cur)
	assert.True(t, restored.Repeat())
	assert.False(t, cart.HasPlaylist(eph.ID))
}

func TestHydrateCountsOnlyNewEntities(t *testing.T) {
	s := newStore(t)
	g := seed(t, s)

	cart := cartographer.New(nil)
	cart.AddAlbum(g.album)
	cart.AddTrack(g.tracks[0])

	env := library.Env{Anchors: map[model.LibraryType]string{model.LibraryMusic: t.TempDir()}}
	st, err := Hydrate(context.Background(), s, cart, library.NewRegistry(), env)
	require.NoError(t, err)
	assert.Equal(t, HydrateStats{Libraries: 2, Artists: 2, Albums: 0, Tracks: 2}, st)
	assert.Equal(t, 3, cart.Counts().Tracks)
}

func TestSaveTrackReplacesPaths(t *testing.T) {
	s := newStore(t)
	g := seed(t, s)
	ctx := context.Background()

	tr := g.tracks[0]
	tr.Title = "Be My Husband (Live)"
	tr.PlaybackPosition = 5000
	tr.RemovePath(g.usb.ID)
	require.NoError(t, s.SaveTrack(ctx, tr))

	d, err := s.Load(ctx)
	require.NoError(t, err)
	var rec TrackRecord
	for _, r := range d.Tracks {
		if r.ID == tr.ID.String() {
			rec = r
		}
	}
	assert.Equal(t, "Be My Husband (Live)", rec.Title)
	assert.Equal(t, 5000, rec.PlaybackPosition)

	var paths []TrackPathRecord
	for _, p := range d.Paths {
		if p.TrackID == tr.ID.String() {
			paths = append(paths, p)
		}
	}
	require.Len(t, paths, 1)
	assert.Equal(t, g.lib.ID.String(), paths[0].LibraryID)
	assert.Zero(t, paths[0].Seq)
}

func TestDeletes(t *testing.T) {
	s := newStore(t)
	g := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.DeleteTrack(ctx, g.single.ID))
	require.NoError(t, s.DeleteLibrary(ctx, g.usb.ID))
	require.NoError(t, s.DeleteArtist(ctx, g.loose.ID))

	d, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, d.Libraries, 1)
	assert.Len(t, d.Artists, 1)
	assert.Len(t, d.Tracks, 2)
	assert.Len(t, d.Paths, 2)
	for _, p := range d.Paths {
		assert.Equal(t, g.lib.ID.String(), p.LibraryID)
	}

	p := playlist.New("Gone", nil)
	p.Add(g.tracks[0].ID)
	require.NoError(t, s.SavePlaylist(ctx, p.Snapshot()))
	require.NoError(t, s.DeletePlaylist(ctx, p.ID))
	d, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, d.Playlists)
	assert.Empty(t, d.PlaylistTracks)
}

func TestHydrateSkipsDanglingRows(t *testing.T) {
	s := newStore(t)
	g := seed(t, s)
	ctx := context.Background()
	require.NoError(t, s.DeleteArtist(ctx, g.artist.ID))

	cart := cartographer.New(nil)
	st, err := Hydrate(ctx, s, cart, library.NewRegistry(), library.Env{})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Artists)
	assert.Equal(t, 0, st.Albums)
	assert.Equal(t, 1, st.Tracks)
	assert.Equal(t, 3, st.Skipped)
	assert.False(t, cart.HasAlbum(g.album.ID))
	assert.False(t, cart.HasTrack(g.tracks[0].ID))
}

func TestStringListScan(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan(`["a","b"]`))
	assert.Equal(t, StringList{"a", "b"}, l)
	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)
	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
