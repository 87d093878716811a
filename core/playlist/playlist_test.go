package playlist

import (
	"math/rand/v2"
	"strings"
	"testing"

	"Atlas/core/events"
	"Atlas/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	artists map[model.ID]model.Artist
	albums  map[model.ID]model.Album
	tracks  map[model.ID]model.Track
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		artists: map[model.ID]model.Artist{},
		albums:  map[model.ID]model.Album{},
		tracks:  map[model.ID]model.Track{},
	}
}

func (f *fakeSource) GetTrack(id model.ID) (model.Track, error) {
	if t, ok := f.tracks[id]; ok {
		return t, nil
	}
	return model.Track{}, model.ErrNotFound
}

func (f *fakeSource) GetAlbum(id model.ID) (model.Album, error) {
	if a, ok := f.albums[id]; ok {
		return a, nil
	}
	return model.Album{}, model.ErrNotFound
}

func (f *fakeSource) GetArtist(id model.ID) (model.Artist, error) {
	if a, ok := f.artists[id]; ok {
		return a, nil
	}
	return model.Artist{}, model.ErrNotFound
}

func (f *fakeSource) artist(name string) model.ID {
	a := model.NewArtist(name, "/"+name, model.LibraryMusic)
	f.artists[a.ID] = a
	return a.ID
}

func (f *fakeSource) album(artist model.ID, name string, year int) model.ID {
	al := model.NewAlbum(artist, name)
	al.Year = year
	f.albums[al.ID] = al
	return al.ID
}

func (f *fakeSource) track(artist, album model.ID, disc, pos int, title string) model.ID {
	t := model.NewTrack(artist, album)
	t.Disc, t.Position, t.Title = disc, pos, title
	f.tracks[t.ID] = t
	return t.ID
}

func fixedRand() Option { return WithRand(rand.New(rand.NewPCG(1, 2))) }

func threeTracks(t *testing.T) (*Playlist, []model.ID) {
	t.Helper()
	src := newFakeSource()
	ar := src.artist("Artist")
	al := src.album(ar, "Album", 2001)
	ids := []model.ID{
		src.track(ar, al, 1, 1, "Charlie"),
		src.track(ar, al, 1, 2, "Alpha"),
		src.track(ar, al, 1, 3, "Bravo"),
	}
	p := New("test", src, fixedRand())
	p.Add(ids...)
	return p, ids
}

func TestNextWithoutRepeat(t *testing.T) {
	p, ids := threeTracks(t)
	assert.Equal(t, -1, p.Cursor())

	for i := 0; i < 3; i++ {
		id, ok := p.Next()
		require.True(t, ok)
		assert.Equal(t, ids[i], id)
		assert.Equal(t, i, p.Cursor())
	}
	_, ok := p.Next()
	assert.False(t, ok)
	assert.Equal(t, 2, p.Cursor())
}

func TestNextWithRepeatReplaysLast(t *testing.T) {
	p, ids := threeTracks(t)
	p.SetRepeat(true)
	for i := 0; i < 3; i++ {
		p.Next()
	}
	id, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, ids[2], id)
	assert.Equal(t, 2, p.Cursor())
}

func TestPreviousStopsAtFirst(t *testing.T) {
	p, ids := threeTracks(t)
	_, ok := p.Previous()
	assert.False(t, ok)

	p.Next()
	p.Next()
	id, ok := p.Previous()
	require.True(t, ok)
	assert.Equal(t, ids[0], id)
	_, ok = p.Previous()
	assert.False(t, ok)
	assert.Equal(t, 0, p.Cursor())

	p.SetRepeat(true)
	id, ok = p.Previous()
	require.True(t, ok)
	assert.Equal(t, ids[0], id)
}

func TestApplyModelKeepsCurrentTrack(t *testing.T) {
	p, ids := threeTracks(t)
	p.Next()
	p.Next()
	cur, _ := p.Current()
	require.Equal(t, ids[1], cur)

	p.ApplyModel(SortTrackName)
	got, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, ids[1], got)
	assert.Equal(t, 0, p.Cursor(), "Alpha sorts first")
	assert.Equal(t, []model.ID{ids[1], ids[2], ids[0]}, p.Tracks())

	p.ApplyModel(SortOldest)
	got, _ = p.Current()
	assert.Equal(t, ids[1], got)
	assert.Equal(t, []model.ID{ids[2], ids[1], ids[0]}, p.Tracks())
}

func TestSortByAlbumAndArtist(t *testing.T) {
	src := newFakeSource()
	zed := src.artist("Zed")
	abba := src.artist("ABBA")
	late := src.album(abba, "Voulez-Vous", 1979)
	early := src.album(abba, "Waterloo", 1974)
	z := src.album(zed, "Another", 2010)

	a1 := src.track(abba, late, 1, 2, "Chiquitita")
	a2 := src.track(abba, late, 1, 1, "As Good as New")
	a3 := src.track(abba, early, 1, 1, "Waterloo")
	z1 := src.track(zed, z, 2, 1, "Disc Two")
	z2 := src.track(zed, z, 1, 5, "Disc One")

	p := New("mix", src, fixedRand())
	p.Add(a1, z1, a2, a3, z2)

	p.ApplyModel(SortAlbum)
	assert.Equal(t, []model.ID{z2, z1, a2, a1, a3}, p.Tracks())

	p.ApplyModel(SortArtist)
	assert.Equal(t, []model.ID{a3, a2, a1, z2, z1}, p.Tracks())
}

func TestSortPutsMissingTracksLast(t *testing.T) {
	src := newFakeSource()
	ar := src.artist("A")
	known := src.track(ar, model.NilID, 1, 0, "Known")
	p := New("x", src, fixedRand())
	gone := model.NewID()
	p.Add(gone, known)
	p.ApplyModel(SortTrackName)
	assert.Equal(t, []model.ID{known, gone}, p.Tracks())
}

func TestTrackNameUsesCollation(t *testing.T) {
	src := newFakeSource()
	ar := src.artist("A")
	e := src.track(ar, model.NilID, 1, 0, "Été")
	f := src.track(ar, model.NilID, 1, 0, "Fin")
	d := src.track(ar, model.NilID, 1, 0, "dernier")
	p := New("x", src, fixedRand())
	p.Add(f, e, d)
	p.ApplyModel(SortTrackName)
	assert.Equal(t, []model.ID{d, e, f}, p.Tracks())
}

func TestRemoveCurrentSlidesNextIn(t *testing.T) {
	p, ids := threeTracks(t)
	p.Next()
	p.Next()

	require.True(t, p.Remove(ids[1]))
	assert.Equal(t, 1, p.Cursor())
	cur, _ := p.Current()
	assert.Equal(t, ids[2], cur)

	require.True(t, p.Remove(ids[0]))
	assert.Equal(t, 0, p.Cursor())

	require.True(t, p.Remove(ids[2]))
	assert.Equal(t, -1, p.Cursor())
	assert.False(t, p.Remove(ids[2]))
}

func TestRemoveLastCurrentClamps(t *testing.T) {
	p, ids := threeTracks(t)
	for i := 0; i < 3; i++ {
		p.Next()
	}
	p.Remove(ids[2])
	assert.Equal(t, 1, p.Cursor())
}

func TestAddIgnoresDuplicates(t *testing.T) {
	p, ids := threeTracks(t)
	p.Add(ids[0], ids[0])
	assert.Equal(t, 3, p.Len())
}

func TestShuffleStartsWithCurrentAndSurvivesSort(t *testing.T) {
	p, ids := threeTracks(t)
	p.Next()
	p.Next()
	p.SetShuffle(true)

	order := p.ShuffleOrder()
	require.Len(t, order, 3)
	assert.Equal(t, ids[1], order[0])
	assert.ElementsMatch(t, ids, order)

	p.ApplyModel(SortTrackName)
	assert.Equal(t, order, p.ShuffleOrder())

	for _, want := range order[1:] {
		got, ok := p.Next()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := p.Next()
	assert.False(t, ok)

	got, ok := p.Previous()
	require.True(t, ok)
	assert.Equal(t, order[1], got)

	p.SetShuffle(false)
	assert.Nil(t, p.ShuffleOrder())
}

func TestShuffleExtendsAheadOfCurrent(t *testing.T) {
	p, ids := threeTracks(t)
	p.Next()
	p.SetShuffle(true)
	extra := model.NewID()
	p.Add(extra)

	order := p.ShuffleOrder()
	assert.Len(t, order, 4)
	assert.Equal(t, ids[0], order[0])
	assert.Contains(t, order[1:], extra)
}

func TestShuffleRemoveCurrentContinuesShuffleOrder(t *testing.T) {
	for seed := uint64(0); seed < 8; seed++ {
		src := newFakeSource()
		ar := src.artist("Artist")
		al := src.album(ar, "Album", 2001)
		var ids []model.ID
		for i, title := range []string{"a", "b", "c", "d", "e"} {
			ids = append(ids, src.track(ar, al, 1, i+1, title))
		}
		p := New("test", src, WithRand(rand.New(rand.NewPCG(seed, 7))))
		p.Add(ids...)
		p.Next()
		p.SetShuffle(true)
		order := p.ShuffleOrder()

		cur, ok := p.Next()
		require.True(t, ok)
		require.Equal(t, order[1], cur)
		require.True(t, p.Remove(cur))

		// the following shuffle entry slides in, the rest follow in order
		got, ok := p.Current()
		require.True(t, ok)
		assert.Equal(t, order[2], got, "seed %d", seed)
		visited := []model.ID{got}
		for {
			id, ok := p.Next()
			if !ok {
				break
			}
			visited = append(visited, id)
		}
		assert.Equal(t, order[2:], visited, "seed %d", seed)
	}
}

func TestShuffleRemoveLastCurrentClamps(t *testing.T) {
	p, _ := threeTracks(t)
	p.Next()
	p.SetShuffle(true)
	order := p.ShuffleOrder()
	p.Next()
	last, ok := p.Next()
	require.True(t, ok)
	require.Equal(t, order[2], last)

	require.True(t, p.Remove(last))
	cur, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, order[1], cur)
	_, ok = p.Next()
	assert.False(t, ok)
}

func TestSnapshotRestore(t *testing.T) {
	p, ids := threeTracks(t)
	p.Next()
	p.Next()
	p.SetRepeat(true)
	p.ApplyModel(SortTrackName)
	p.SetShuffle(true)

	snap := p.Snapshot()
	q := Restore(snap, nil, fixedRand())
	assert.Equal(t, p.ID, q.ID)
	assert.True(t, q.Repeat())
	assert.Equal(t, SortTrackName, q.Model())
	assert.Equal(t, ids, q.Queue())
	cur, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, ids[1], cur)
	assert.Equal(t, p.ShuffleOrder(), q.ShuffleOrder())
}

func TestEphemeralAndEvents(t *testing.T) {
	bus := events.NewBus()
	ch, cancel := bus.Subscribe(events.PlaylistModified)
	defer cancel()

	p := NewEphemeral("now playing", newFakeSource(), []model.ID{model.NewID()}, WithBus(bus))
	assert.True(t, p.Ephemeral)
	e := <-ch
	assert.Equal(t, p.ID, e.EntityID)
}

func TestJumpTo(t *testing.T) {
	p, ids := threeTracks(t)
	require.NoError(t, p.JumpTo(ids[2]))
	assert.Equal(t, 2, p.Cursor())
	assert.ErrorIs(t, p.JumpTo(model.NewID()), model.ErrNotFound)
}

func TestParseSortModel(t *testing.T) {
	m, err := ParseSortModel("Track-Name")
	require.NoError(t, err)
	assert.Equal(t, SortTrackName, m)
	_, err = ParseSortModel("random")
	assert.Error(t, err)
}

func TestParseM3U(t *testing.T) {
	data := "\ufeff#EXTM3U\r\n" +
		"#EXTINF:215,Bruce Springsteen - The Rising\r\n" +
		"Bruce Springsteen/The Rising/03 - The Rising.mp3\r\n" +
		"\r\n" +
		"# a comment\n" +
		"/abs/path/song.flac\n"

	entries, err := ParseM3U(strings.NewReader(data), "/lists")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/lists/Bruce Springsteen/The Rising/03 - The Rising.mp3", entries[0].Path)
	assert.Equal(t, 215, entries[0].Duration)
	assert.Equal(t, "Bruce Springsteen - The Rising", entries[0].Title)
	assert.Equal(t, "/abs/path/song.flac", entries[1].Path)
	assert.Equal(t, -1, entries[1].Duration)
}
