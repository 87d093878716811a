package model

import "slices"

// TrackPath is one library-relative location of a track.
type TrackPath struct {
	LibraryID    ID     `json:"libraryId"`
	RelativePath string `json:"relativePath"`
}

// Track is a single audio file, possibly reachable from several libraries.
type Track struct {
	ID       ID `json:"id"`
	ArtistID ID `json:"artistId"`
	AlbumID  ID `json:"albumId"` // NilID when the track hangs off the artist

	Disc     int    `json:"disc"`
	Position int    `json:"position"` // 0 means unknown
	Duration int    `json:"duration"` // seconds
	Title    string `json:"title"`

	Description string   `json:"description,omitempty"`
	Narrator    string   `json:"narrator,omitempty"`
	Genres      []string `json:"genres,omitempty"`

	// PlaybackPosition is the resume point in milliseconds.
	PlaybackPosition int `json:"playbackPosition,omitempty"`

	// Paths is ordered by insertion; resolution tries them in this order.
	Paths []TrackPath `json:"paths"`
}

// NewTrack creates a track with the defaults used before tags are applied.
func NewTrack(artistID, albumID ID) Track {
	return Track{ID: NewID(), ArtistID: artistID, AlbumID: albumID, Disc: 1}
}

// HasAlbum reports whether the track belongs to an album.
func (t Track) HasAlbum() bool { return t.AlbumID != NilID }

// PathFor returns the relative path registered for a library.
func (t Track) PathFor(lib ID) (string, bool) {
	for _, p := range t.Paths {
		if p.LibraryID == lib {
			return p.RelativePath, true
		}
	}
	return "", false
}

// SetPath registers rel under lib, replacing an existing entry for the same
// library in place so the resolution order is kept.
func (t *Track) SetPath(lib ID, rel string) {
	for i := range t.Paths {
		if t.Paths[i].LibraryID == lib {
			t.Paths[i].RelativePath = rel
			return
		}
	}
	t.Paths = append(t.Paths, TrackPath{LibraryID: lib, RelativePath: rel})
}

// RemovePath drops the entry for lib and reports whether one existed.
func (t *Track) RemovePath(lib ID) bool {
	n := len(t.Paths)
	t.Paths = slices.DeleteFunc(t.Paths, func(p TrackPath) bool { return p.LibraryID == lib })
	return len(t.Paths) != n
}

// Clone returns a copy that shares no slices with t.
func (t Track) Clone() Track {
	t.Genres = slices.Clone(t.Genres)
	t.Paths = slices.Clone(t.Paths)
	return t
}
