// Package metadata reads tags and durations from audio files.
package metadata

import (
	"database/sql"
	"path/filepath"

	"Atlas/core/heuristics"
)

// Picture is an embedded cover image.
type Picture struct {
	MIMEType string
	Ext      string
	Data     []byte
}

// TagRecord is the best-effort result of reading one file. Unset fields are
// invalid sql.Null values so a known zero can be told from an unknown one.
// Genres is nil when the file carries none.
type TagRecord struct {
	Title       sql.Null[string]
	Artist      sql.Null[string]
	AlbumArtist sql.Null[string]
	Album       sql.Null[string]
	Disc        sql.Null[int]
	Position    sql.Null[int]
	Duration    sql.Null[int] // seconds
	Year        sql.Null[int]
	Genres      []string
	Description sql.Null[string]
	Narrator    sql.Null[string]
	Picture     *Picture
}

func known[T comparable](v T) sql.Null[T] {
	var zero T
	return sql.Null[T]{V: v, Valid: v != zero}
}

func set[T any](v T) sql.Null[T] {
	return sql.Null[T]{V: v, Valid: true}
}

// ArtistName prefers the album artist, which keeps compilations together.
func (r TagRecord) ArtistName() (string, bool) {
	if r.AlbumArtist.Valid {
		return r.AlbumArtist.V, true
	}
	return r.Artist.V, r.Artist.Valid
}

// WithFallback fills an unset title and position from the file name. The
// artist and album names are stripped from the title when present.
func (r TagRecord) WithFallback(path, artist, album string) TagRecord {
	name := filepath.Base(path)
	if !r.Title.Valid {
		r.Title = set(heuristics.DeriveTitle(name, artist, album))
	}
	if !r.Position.Valid {
		if n, ok := heuristics.DerivePosition(name); ok {
			r.Position = set(int(n))
		}
	}
	return r
}

// FilenameOnly is the record used when a file's tags cannot be read.
func FilenameOnly(path, artist, album string) TagRecord {
	return TagRecord{}.WithFallback(path, artist, album)
}
