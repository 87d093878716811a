package cartographer

import (
	"sync"
	"testing"

	"Atlas/core/events"
	"Atlas/core/playlist"
	"Atlas/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, c *Cartographer) (model.Artist, model.Album, model.Track) {
	t.Helper()
	ar := model.NewArtist("Bruce Springsteen", "/music/Bruce Springsteen", model.LibraryMusic)
	require.True(t, c.AddArtist(ar))
	al := model.NewAlbum(ar.ID, "The Rising")
	require.True(t, c.AddAlbum(al))
	require.NoError(t, c.AttachAlbum(al.ID))
	tr := model.NewTrack(ar.ID, al.ID)
	tr.Title = "The Rising"
	tr.SetPath(model.NewID(), "Bruce Springsteen/The Rising/03 - The Rising.mp3")
	require.True(t, c.AddTrack(tr))
	require.NoError(t, c.AttachTrack(tr.ID))
	return ar, al, tr
}

func TestRoundTrip(t *testing.T) {
	c := New(nil)
	ar, al, tr := seed(t, c)

	gotAr, err := c.GetArtist(ar.ID)
	require.NoError(t, err)
	assert.Equal(t, ar.ID, gotAr.ID)
	assert.Equal(t, []model.ID{al.ID}, gotAr.Albums)

	gotAl, err := c.GetAlbum(al.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{tr.ID}, gotAl.Tracks)

	gotTr, err := c.GetTrack(tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, gotTr.ID)

	_, err = c.GetTrack(model.NewID())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestFirstWriterWins(t *testing.T) {
	c := New(nil)
	ar := model.NewArtist("Original", "/a", model.LibraryMusic)
	require.True(t, c.AddArtist(ar))

	dup := ar
	dup.Name = "Replacement"
	assert.False(t, c.AddArtist(dup))

	got, _ := c.GetArtist(ar.ID)
	assert.Equal(t, "Original", got.Name)
}

func TestReturnedEntitiesAreCopies(t *testing.T) {
	c := New(nil)
	ar, _, _ := seed(t, c)
	got, _ := c.GetArtist(ar.ID)
	got.Albums[0] = model.NewID()
	again, _ := c.GetArtist(ar.ID)
	assert.NotEqual(t, got.Albums[0], again.Albums[0])
}

func TestGetArtistByNameFoldsDiacritics(t *testing.T) {
	c := New(nil)
	ar := model.NewArtist("Beyoncé", "/b", model.LibraryMusic)
	c.AddArtist(ar)

	got, err := c.GetArtistByName("Beyonce")
	require.NoError(t, err)
	assert.Equal(t, ar.ID, got.ID)

	_, err = c.GetArtistByName("beyonce")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, c.UpdateArtist(ar.ID, func(a *model.Artist) { a.Name = "Knowles" }))
	_, err = c.GetArtistByName("Beyoncé")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = c.GetArtistByName("Knowles")
	assert.NoError(t, err)
}

func TestRemoveArtistKeepsNameForSameNamedArtist(t *testing.T) {
	c := New(nil)
	first := model.NewArtist("Sigur Rós", "/a", model.LibraryMusic)
	second := model.NewArtist("Sigur Ros", "/b", model.LibraryMusic)
	third := model.NewArtist("Sigur Ros", "/c", model.LibraryMusic)
	c.AddArtist(first)
	c.AddArtist(second)
	c.AddArtist(third)

	require.NoError(t, c.RemoveArtist(first.ID))
	got, err := c.GetArtistByName("Sigur Ros")
	require.NoError(t, err)
	assert.Contains(t, []model.ID{second.ID, third.ID}, got.ID)

	require.NoError(t, c.UpdateArtist(got.ID, func(a *model.Artist) { a.Name = "Jónsi" }))
	left, err := c.GetArtistByName("Sigur Rós")
	require.NoError(t, err)
	assert.NotEqual(t, got.ID, left.ID)
	assert.Contains(t, []model.ID{second.ID, third.ID}, left.ID)

	require.NoError(t, c.RemoveArtist(left.ID))
	_, err = c.GetArtistByName("Sigur Ros")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAttachValidatesRelations(t *testing.T) {
	c := New(nil)
	ar, al, _ := seed(t, c)
	other := model.NewArtist("Other", "/o", model.LibraryMusic)
	c.AddArtist(other)

	mismatched := model.NewTrack(other.ID, al.ID)
	c.AddTrack(mismatched)
	assert.ErrorIs(t, c.AttachTrack(mismatched.ID), model.ErrInvalidRelation)

	orphan := model.NewAlbum(model.NewID(), "Nowhere")
	c.AddAlbum(orphan)
	assert.ErrorIs(t, c.AttachAlbum(orphan.ID), model.ErrInvalidRelation)

	direct := model.NewTrack(ar.ID, model.NilID)
	c.AddTrack(direct)
	require.NoError(t, c.AttachTrack(direct.ID))
	got, _ := c.GetArtist(ar.ID)
	assert.Contains(t, got.Tracks, direct.ID)
}

func TestRemoveRefusesToOrphan(t *testing.T) {
	c := New(nil)
	ar, al, tr := seed(t, c)

	assert.ErrorIs(t, c.RemoveArtist(ar.ID), model.ErrInvalidRelation)
	assert.ErrorIs(t, c.RemoveAlbum(al.ID), model.ErrInvalidRelation)

	require.NoError(t, c.RemoveTrack(tr.ID))
	gotAl, _ := c.GetAlbum(al.ID)
	assert.Empty(t, gotAl.Tracks)

	require.NoError(t, c.RemoveAlbum(al.ID))
	gotAr, _ := c.GetArtist(ar.ID)
	assert.Empty(t, gotAr.Albums)
	require.NoError(t, c.RemoveArtist(ar.ID))
	assert.False(t, c.HasArtist(ar.ID))
	assert.ErrorIs(t, c.RemoveArtist(ar.ID), model.ErrNotFound)
}

func TestRemoveArtistCascade(t *testing.T) {
	bus := events.NewBus()
	removedEvents, cancel := bus.Subscribe(events.TrackRemoved, events.AlbumRemoved, events.ArtistRemoved)
	defer cancel()

	c := New(bus)
	ar, al, tr := seed(t, c)
	direct := model.NewTrack(ar.ID, model.NilID)
	c.AddTrack(direct)
	require.NoError(t, c.AttachTrack(direct.ID))

	removed, err := c.RemoveArtistCascade(ar.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.ID{tr.ID, direct.ID}, removed)
	assert.False(t, c.HasArtist(ar.ID))
	assert.False(t, c.HasAlbum(al.ID))
	assert.False(t, c.HasTrack(tr.ID))
	assert.Equal(t, Counts{}, c.Counts())
	assert.Len(t, removedEvents, 4)
}

func TestPathIndex(t *testing.T) {
	c := New(nil)
	_, al, tr := seed(t, c)
	lib := tr.Paths[0].LibraryID

	got, err := c.FindTrackByPath(lib, tr.Paths[0].RelativePath)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, got.ID)

	other := model.NewID()
	require.NoError(t, c.UpdateTrack(tr.ID, func(t *model.Track) {
		t.SetPath(other, "x/y.mp3")
		t.RemovePath(lib)
	}))
	_, err = c.FindTrackByPath(lib, tr.Paths[0].RelativePath)
	assert.ErrorIs(t, err, model.ErrNotFound)
	got, err = c.FindTrackByPath(other, "x/y.mp3")
	require.NoError(t, err)
	assert.Equal(t, al.ID, got.AlbumID)

	assert.Len(t, c.TracksUnder(other, "x"), 1)
	assert.Len(t, c.TracksUnder(other, ""), 1)
	assert.Empty(t, c.TracksUnder(other, "x/y"))
	assert.Empty(t, c.TracksUnder(lib, ""))
}

func TestUpdateCannotReparent(t *testing.T) {
	c := New(nil)
	_, al, tr := seed(t, c)
	require.NoError(t, c.UpdateTrack(tr.ID, func(t *model.Track) {
		t.AlbumID = model.NilID
		t.Title = "Renamed"
	}))
	got, _ := c.GetTrack(tr.ID)
	assert.Equal(t, al.ID, got.AlbumID)
	assert.Equal(t, "Renamed", got.Title)
}

func TestFindAlbumAndTrackInAlbum(t *testing.T) {
	c := New(nil)
	ar, al, tr := seed(t, c)

	got, err := c.FindAlbum(ar.ID, "The Rising")
	require.NoError(t, err)
	assert.Equal(t, al.ID, got.ID)
	_, err = c.FindAlbum(ar.ID, "Born to Run")
	assert.ErrorIs(t, err, model.ErrNotFound)

	found, err := c.FindTrackInAlbum(al.ID, 1, 0, "The Rising")
	require.NoError(t, err)
	assert.Equal(t, tr.ID, found.ID)
}

func TestPlaylists(t *testing.T) {
	c := New(nil)
	_, _, tr := seed(t, c)
	p := playlist.New("Favourites", c)
	p.Add(tr.ID)
	require.True(t, c.AddPlaylist(p))
	assert.False(t, c.AddPlaylist(p))

	got, err := c.GetPlaylist(p.ID)
	require.NoError(t, err)
	assert.Same(t, p, got)
	assert.Len(t, c.Playlists(), 1)

	require.NoError(t, c.RemovePlaylist(p.ID))
	assert.ErrorIs(t, c.RemovePlaylist(p.ID), model.ErrNotFound)
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	c := New(nil)
	ar := model.NewArtist("A", "/a", model.LibraryMusic)
	c.AddArtist(ar)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			tr := model.NewTrack(ar.ID, model.NilID)
			c.AddTrack(tr)
			_ = c.AttachTrack(tr.ID)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, _ = c.GetArtist(ar.ID)
			_ = c.Tracks()
		}
	}()
	wg.Wait()

	got, _ := c.GetArtist(ar.ID)
	assert.Len(t, got.Tracks, 200)
}
