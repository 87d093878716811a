// Package cartographer is the registry that owns every Artist, Album, Track
// and Playlist of a session. Entities refer to each other only by id; the
// registry hands out copies and all mutation goes through its methods.
package cartographer

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"Atlas/core/events"
	"Atlas/core/heuristics"
	"Atlas/core/playlist"
	"Atlas/model"
)

type pathKey struct {
	library model.ID
	rel     string
}

// Cartographer 实体注册表
type Cartographer struct {
	artists *table[model.Artist]
	albums  *table[model.Album]
	tracks  *table[model.Track]

	// guarded by artists.mu
	artistsByName map[string]model.ID
	// guarded by tracks.mu
	tracksByPath map[pathKey]model.ID

	plMu      sync.RWMutex
	playlists map[model.ID]*playlist.Playlist

	bus *events.Bus
}

// New creates an empty registry publishing changes on bus, which may be nil.
func New(bus *events.Bus) *Cartographer {
	return &Cartographer{
		artists:       newTable(model.Artist.Clone),
		albums:        newTable(model.Album.Clone),
		tracks:        newTable(model.Track.Clone),
		artistsByName: make(map[string]model.ID),
		tracksByPath:  make(map[pathKey]model.ID),
		playlists:     make(map[model.ID]*playlist.Playlist),
		bus:           bus,
	}
}

// Bus returns the event bus changes are published on.
func (c *Cartographer) Bus() *events.Bus { return c.bus }

// ========== Artist ==========

// AddArtist registers a by id. An id that is already present keeps its
// original attributes and AddArtist reports false.
func (c *Cartographer) AddArtist(a model.Artist) bool {
	c.artists.mu.Lock()
	if _, exists := c.artists.rows[a.ID]; exists {
		c.artists.mu.Unlock()
		return false
	}
	row := a.Clone()
	c.artists.rows[a.ID] = &row
	key := heuristics.FoldName(a.Name)
	if _, taken := c.artistsByName[key]; !taken {
		c.artistsByName[key] = a.ID
	}
	c.artists.mu.Unlock()

	c.bus.Emit(events.ArtistAdded, a.ID, model.NilID)
	return true
}

func (c *Cartographer) GetArtist(id model.ID) (model.Artist, error) {
	if a, ok := c.artists.get(id); ok {
		return a, nil
	}
	return model.Artist{}, fmt.Errorf("artist %s: %w", id, model.ErrNotFound)
}

// GetArtistByName matches exactly on the diacritics-folded name; case is
// significant.
func (c *Cartographer) GetArtistByName(name string) (model.Artist, error) {
	c.artists.mu.RLock()
	id, ok := c.artistsByName[heuristics.FoldName(name)]
	c.artists.mu.RUnlock()
	if !ok {
		return model.Artist{}, fmt.Errorf("artist %q: %w", name, model.ErrNotFound)
	}
	return c.GetArtist(id)
}

func (c *Cartographer) HasArtist(id model.ID) bool { return c.artists.has(id) }

// Artists returns every artist ordered by name.
func (c *Cartographer) Artists() []model.Artist {
	out := c.artists.all()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UpdateArtist applies fn to the stored artist. The id cannot be changed.
func (c *Cartographer) UpdateArtist(id model.ID, fn func(*model.Artist)) error {
	c.artists.mu.Lock()
	defer c.artists.mu.Unlock()
	row, ok := c.artists.rows[id]
	if !ok {
		return fmt.Errorf("artist %s: %w", id, model.ErrNotFound)
	}
	oldKey := heuristics.FoldName(row.Name)
	fn(row)
	row.ID = id
	if newKey := heuristics.FoldName(row.Name); newKey != oldKey {
		if c.artistsByName[oldKey] == id {
			c.reindexNameLocked(oldKey)
		}
		if _, taken := c.artistsByName[newKey]; !taken {
			c.artistsByName[newKey] = id
		}
	}
	return nil
}

// RemoveArtist removes an artist that no longer owns albums or tracks.
// Owning artists fail with ErrInvalidRelation; see RemoveArtistCascade.
func (c *Cartographer) RemoveArtist(id model.ID) error {
	c.artists.mu.Lock()
	row, ok := c.artists.rows[id]
	if !ok {
		c.artists.mu.Unlock()
		return fmt.Errorf("artist %s: %w", id, model.ErrNotFound)
	}
	if len(row.Albums) > 0 || len(row.Tracks) > 0 {
		c.artists.mu.Unlock()
		return fmt.Errorf("artist %s still owns %d albums and %d tracks: %w",
			id, len(row.Albums), len(row.Tracks), model.ErrInvalidRelation)
	}
	delete(c.artists.rows, id)
	if key := heuristics.FoldName(row.Name); c.artistsByName[key] == id {
		c.reindexNameLocked(key)
	}
	c.artists.mu.Unlock()

	c.bus.Emit(events.ArtistRemoved, id, model.NilID)
	return nil
}

// reindexNameLocked points key at a remaining artist with that folded name,
// the smallest id when there are several, or drops it. Callers hold
// artists.mu.
func (c *Cartographer) reindexNameLocked(key string) {
	delete(c.artistsByName, key)
	for id, row := range c.artists.rows {
		if heuristics.FoldName(row.Name) != key {
			continue
		}
		if cur, ok := c.artistsByName[key]; !ok || id.String() < cur.String() {
			c.artistsByName[key] = id
		}
	}
}

// ========== Album ==========

// AddAlbum registers al without checking its artist, so rehydration may add
// entities in any order. AttachAlbum links it to the artist.
func (c *Cartographer) AddAlbum(al model.Album) bool {
	c.albums.mu.Lock()
	if _, exists := c.albums.rows[al.ID]; exists {
		c.albums.mu.Unlock()
		return false
	}
	row := al.Clone()
	c.albums.rows[al.ID] = &row
	c.albums.mu.Unlock()

	c.bus.Emit(events.AlbumAdded, al.ID, model.NilID)
	return true
}

func (c *Cartographer) GetAlbum(id model.ID) (model.Album, error) {
	if al, ok := c.albums.get(id); ok {
		return al, nil
	}
	return model.Album{}, fmt.Errorf("album %s: %w", id, model.ErrNotFound)
}

func (c *Cartographer) HasAlbum(id model.ID) bool { return c.albums.has(id) }

// Albums returns every album ordered by name.
func (c *Cartographer) Albums() []model.Album {
	out := c.albums.all()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindAlbum returns the album of artistID that was discovered in folder.
func (c *Cartographer) FindAlbum(artistID model.ID, folder string) (model.Album, error) {
	artist, err := c.GetArtist(artistID)
	if err != nil {
		return model.Album{}, err
	}
	c.albums.mu.RLock()
	defer c.albums.mu.RUnlock()
	for _, id := range artist.Albums {
		if row, ok := c.albums.rows[id]; ok && row.FolderName == folder {
			return row.Clone(), nil
		}
	}
	return model.Album{}, fmt.Errorf("album %q of artist %s: %w", folder, artistID, model.ErrNotFound)
}

func (c *Cartographer) UpdateAlbum(id model.ID, fn func(*model.Album)) error {
	c.albums.mu.Lock()
	row, ok := c.albums.rows[id]
	if !ok {
		c.albums.mu.Unlock()
		return fmt.Errorf("album %s: %w", id, model.ErrNotFound)
	}
	artistID := row.ArtistID
	fn(row)
	row.ID = id
	row.ArtistID = artistID
	c.albums.mu.Unlock()

	c.bus.Emit(events.AlbumUpdated, id, model.NilID)
	return nil
}

// AttachAlbum records the album under its artist.
func (c *Cartographer) AttachAlbum(albumID model.ID) error {
	al, err := c.GetAlbum(albumID)
	if err != nil {
		return fmt.Errorf("attach album: %v: %w", err, model.ErrInvalidRelation)
	}
	if err := c.UpdateArtist(al.ArtistID, func(a *model.Artist) { a.AddAlbum(albumID) }); err != nil {
		return fmt.Errorf("attach album %s: %v: %w", albumID, err, model.ErrInvalidRelation)
	}
	return nil
}

// RemoveAlbum removes an album that has no tracks left and detaches it from
// its artist.
func (c *Cartographer) RemoveAlbum(id model.ID) error {
	c.albums.mu.Lock()
	row, ok := c.albums.rows[id]
	if !ok {
		c.albums.mu.Unlock()
		return fmt.Errorf("album %s: %w", id, model.ErrNotFound)
	}
	if len(row.Tracks) > 0 {
		c.albums.mu.Unlock()
		return fmt.Errorf("album %s still owns %d tracks: %w", id, len(row.Tracks), model.ErrInvalidRelation)
	}
	delete(c.albums.rows, id)
	artistID := row.ArtistID
	c.albums.mu.Unlock()

	_ = c.UpdateArtist(artistID, func(a *model.Artist) { a.RemoveAlbum(id) })
	c.bus.Emit(events.AlbumRemoved, id, model.NilID)
	return nil
}

// ========== Track ==========

// AddTrack registers t and indexes its library paths. First writer wins.
func (c *Cartographer) AddTrack(t model.Track) bool {
	c.tracks.mu.Lock()
	if _, exists := c.tracks.rows[t.ID]; exists {
		c.tracks.mu.Unlock()
		return false
	}
	row := t.Clone()
	c.tracks.rows[t.ID] = &row
	c.indexPathsLocked(&row)
	c.tracks.mu.Unlock()

	c.bus.Emit(events.TrackAdded, t.ID, model.NilID)
	return true
}

func (c *Cartographer) indexPathsLocked(t *model.Track) {
	for _, p := range t.Paths {
		key := pathKey{p.LibraryID, p.RelativePath}
		if _, taken := c.tracksByPath[key]; !taken {
			c.tracksByPath[key] = t.ID
		}
	}
}

func (c *Cartographer) unindexPathsLocked(t *model.Track) {
	for _, p := range t.Paths {
		key := pathKey{p.LibraryID, p.RelativePath}
		if c.tracksByPath[key] == t.ID {
			delete(c.tracksByPath, key)
		}
	}
}

func (c *Cartographer) GetTrack(id model.ID) (model.Track, error) {
	if t, ok := c.tracks.get(id); ok {
		return t, nil
	}
	return model.Track{}, fmt.Errorf("track %s: %w", id, model.ErrNotFound)
}

func (c *Cartographer) HasTrack(id model.ID) bool { return c.tracks.has(id) }

// Tracks returns every track ordered by title.
func (c *Cartographer) Tracks() []model.Track {
	out := c.tracks.all()
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// FindTrackByPath looks a track up by one of its library paths.
func (c *Cartographer) FindTrackByPath(library model.ID, rel string) (model.Track, error) {
	c.tracks.mu.RLock()
	id, ok := c.tracksByPath[pathKey{library, rel}]
	c.tracks.mu.RUnlock()
	if !ok {
		return model.Track{}, fmt.Errorf("track at %s: %w", rel, model.ErrNotFound)
	}
	return c.GetTrack(id)
}

// TracksUnder returns the tracks with a path in library whose relative path
// is dir or lies below it. An empty dir matches the whole library.
func (c *Cartographer) TracksUnder(library model.ID, dir string) []model.Track {
	c.tracks.mu.RLock()
	var ids []model.ID
	for key, id := range c.tracksByPath {
		if key.library == library && underDir(key.rel, dir) {
			ids = append(ids, id)
		}
	}
	c.tracks.mu.RUnlock()

	out := make([]model.Track, 0, len(ids))
	for _, id := range ids {
		if t, err := c.GetTrack(id); err == nil {
			out = append(out, t)
		}
	}
	return out
}

func underDir(rel, dir string) bool {
	if dir == "" || dir == "." {
		return true
	}
	return rel == dir || (len(rel) > len(dir) && rel[:len(dir)] == dir && rel[len(dir)] == '/')
}

// FindTrackInAlbum matches a track of albumID by disc, position and title.
func (c *Cartographer) FindTrackInAlbum(albumID model.ID, disc, position int, title string) (model.Track, error) {
	al, err := c.GetAlbum(albumID)
	if err != nil {
		return model.Track{}, err
	}
	c.tracks.mu.RLock()
	defer c.tracks.mu.RUnlock()
	for _, id := range al.Tracks {
		row, ok := c.tracks.rows[id]
		if ok && row.Disc == disc && row.Position == position && row.Title == title {
			return row.Clone(), nil
		}
	}
	return model.Track{}, fmt.Errorf("track %q in album %s: %w", title, albumID, model.ErrNotFound)
}

// UpdateTrack applies fn to the stored track and re-indexes its paths. The
// id and the artist/album relation cannot be changed through fn.
func (c *Cartographer) UpdateTrack(id model.ID, fn func(*model.Track)) error {
	c.tracks.mu.Lock()
	row, ok := c.tracks.rows[id]
	if !ok {
		c.tracks.mu.Unlock()
		return fmt.Errorf("track %s: %w", id, model.ErrNotFound)
	}
	artistID, albumID := row.ArtistID, row.AlbumID
	c.unindexPathsLocked(row)
	fn(row)
	row.ID, row.ArtistID, row.AlbumID = id, artistID, albumID
	c.indexPathsLocked(row)
	c.tracks.mu.Unlock()

	c.bus.Emit(events.TrackUpdated, id, model.NilID)
	return nil
}

// AttachTrack records the track under its album, or under its artist when
// it has no album. The album must belong to the track's artist.
func (c *Cartographer) AttachTrack(trackID model.ID) error {
	t, err := c.GetTrack(trackID)
	if err != nil {
		return fmt.Errorf("attach track: %v: %w", err, model.ErrInvalidRelation)
	}
	if !c.HasArtist(t.ArtistID) {
		return fmt.Errorf("attach track %s: artist %s missing: %w", trackID, t.ArtistID, model.ErrInvalidRelation)
	}
	if !t.HasAlbum() {
		return c.UpdateArtist(t.ArtistID, func(a *model.Artist) { a.AddTrack(trackID) })
	}

	al, err := c.GetAlbum(t.AlbumID)
	if err != nil {
		return fmt.Errorf("attach track %s: %v: %w", trackID, err, model.ErrInvalidRelation)
	}
	if al.ArtistID != t.ArtistID {
		return fmt.Errorf("attach track %s: album %s belongs to artist %s, not %s: %w",
			trackID, al.ID, al.ArtistID, t.ArtistID, model.ErrInvalidRelation)
	}
	c.albums.mu.Lock()
	if row, ok := c.albums.rows[al.ID]; ok {
		row.AddTrack(trackID)
	}
	c.albums.mu.Unlock()
	return nil
}

// RemoveTrack removes a track and detaches it from its album or artist.
// Playlists still holding the id skip it when resolving.
func (c *Cartographer) RemoveTrack(id model.ID) error {
	c.tracks.mu.Lock()
	row, ok := c.tracks.rows[id]
	if !ok {
		c.tracks.mu.Unlock()
		return fmt.Errorf("track %s: %w", id, model.ErrNotFound)
	}
	c.unindexPathsLocked(row)
	delete(c.tracks.rows, id)
	t := *row
	c.tracks.mu.Unlock()

	if t.HasAlbum() {
		c.albums.mu.Lock()
		if al, ok := c.albums.rows[t.AlbumID]; ok {
			al.RemoveTrack(id)
		}
		c.albums.mu.Unlock()
	} else {
		_ = c.UpdateArtist(t.ArtistID, func(a *model.Artist) { a.RemoveTrack(id) })
	}

	c.bus.Emit(events.TrackRemoved, id, model.NilID)
	return nil
}

// ========== Cascades ==========

// RemoveAlbumCascade removes an album with all of its tracks and returns the
// removed track ids.
func (c *Cartographer) RemoveAlbumCascade(id model.ID) ([]model.ID, error) {
	al, err := c.GetAlbum(id)
	if err != nil {
		return nil, err
	}
	var removed []model.ID
	for _, tid := range al.Tracks {
		if err := c.RemoveTrack(tid); err == nil {
			removed = append(removed, tid)
		}
	}
	// 曲目可能已被其他路径移除，但专辑里残留了 ID
	_ = c.UpdateAlbum(id, func(a *model.Album) { a.Tracks = nil })
	return removed, c.RemoveAlbum(id)
}

// RemoveArtistCascade removes an artist, its albums and every track below
// them, in Track → Album → Artist order.
func (c *Cartographer) RemoveArtistCascade(id model.ID) ([]model.ID, error) {
	artist, err := c.GetArtist(id)
	if err != nil {
		return nil, err
	}
	var removed []model.ID
	for _, albumID := range artist.Albums {
		ids, err := c.RemoveAlbumCascade(albumID)
		removed = append(removed, ids...)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return removed, err
		}
	}
	for _, tid := range artist.Tracks {
		if err := c.RemoveTrack(tid); err == nil {
			removed = append(removed, tid)
		}
	}
	_ = c.UpdateArtist(id, func(a *model.Artist) { a.Albums, a.Tracks = nil, nil })
	return removed, c.RemoveArtist(id)
}

// ========== Playlist ==========

func (c *Cartographer) AddPlaylist(p *playlist.Playlist) bool {
	c.plMu.Lock()
	if _, exists := c.playlists[p.ID]; exists {
		c.plMu.Unlock()
		return false
	}
	c.playlists[p.ID] = p
	c.plMu.Unlock()

	c.bus.Emit(events.PlaylistAdded, p.ID, model.NilID)
	return true
}

func (c *Cartographer) GetPlaylist(id model.ID) (*playlist.Playlist, error) {
	c.plMu.RLock()
	defer c.plMu.RUnlock()
	if p, ok := c.playlists[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("playlist %s: %w", id, model.ErrNotFound)
}

func (c *Cartographer) HasPlaylist(id model.ID) bool {
	c.plMu.RLock()
	defer c.plMu.RUnlock()
	_, ok := c.playlists[id]
	return ok
}

// Playlists returns every registered playlist ordered by name.
func (c *Cartographer) Playlists() []*playlist.Playlist {
	c.plMu.RLock()
	out := make([]*playlist.Playlist, 0, len(c.playlists))
	for _, p := range c.playlists {
		out = append(out, p)
	}
	c.plMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Cartographer) RemovePlaylist(id model.ID) error {
	c.plMu.Lock()
	if _, ok := c.playlists[id]; !ok {
		c.plMu.Unlock()
		return fmt.Errorf("playlist %s: %w", id, model.ErrNotFound)
	}
	delete(c.playlists, id)
	c.plMu.Unlock()

	c.bus.Emit(events.PlaylistRemoved, id, model.NilID)
	return nil
}

// Counts 返回各类实体数量
type Counts struct {
	Artists   int `json:"artists"`
	Albums    int `json:"albums"`
	Tracks    int `json:"tracks"`
	Playlists int `json:"playlists"`
}

func (c *Cartographer) Counts() Counts {
	c.plMu.RLock()
	pl := len(c.playlists)
	c.plMu.RUnlock()
	return Counts{
		Artists:   c.artists.len(),
		Albums:    c.albums.len(),
		Tracks:    c.tracks.len(),
		Playlists: pl,
	}
}
