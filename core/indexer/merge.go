package indexer

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"slices"

	"Atlas/core/library"
	"Atlas/core/metadata"
	"Atlas/logger"
	"Atlas/model"
)

// UnknownArtist owns files found directly under a library root that carry
// no artist tag.
const UnknownArtist = "Unknown Artist"

// mergeResult commits one extracted file. Directory structure decides where
// the track lands; tags only supply display attributes.
func (ix *Indexer) mergeResult(ctx context.Context, lib *library.Library, r result, stats *Stats) {
	ix.mergeMu.Lock()
	defer ix.mergeMu.Unlock()

	job, rec := r.job, r.rec
	if r.err != nil {
		stats.ExtractionFailures++
		logger.Warn("metadata extraction failed, using file name",
			logger.String("path", job.abs), logger.ErrorField(r.err))
		rec = metadata.TagRecord{}
	}

	artist, err := ix.resolveArtist(ctx, lib, job, rec, stats)
	if err != nil {
		logger.Error("resolve artist", logger.String("path", job.abs), logger.ErrorField(err))
		return
	}

	var album model.Album
	if job.albumDir != "" {
		album, err = ix.resolveAlbum(ctx, artist, job.albumDir, stats)
		if err != nil {
			logger.Error("resolve album", logger.String("path", job.abs), logger.ErrorField(err))
			return
		}
		ix.applyAlbumTags(ctx, &album, job, rec, stats)
	}

	rec = rec.WithFallback(job.abs, artist.Name, job.albumDir)
	created, err := ix.commitTrack(ctx, lib, artist, album, job.rel, rec, stats)
	if err != nil {
		logger.Error("commit track", logger.String("path", job.abs), logger.ErrorField(err))
		return
	}
	if created {
		stats.TracksCreated++
	} else {
		stats.TracksUpdated++
	}
	logger.Debug("indexed file", logger.String("path", job.abs), logger.Bool("created", created))
}

func (ix *Indexer) resolveArtist(ctx context.Context, lib *library.Library, job fileJob, rec metadata.TagRecord, stats *Stats) (model.Artist, error) {
	name := job.artistDir
	if name == "" {
		if tagged, ok := rec.ArtistName(); ok {
			name = tagged
		} else {
			name = UnknownArtist
		}
	}
	if a, err := ix.cart.GetArtistByName(name); err == nil {
		return a, nil
	}

	dir, _ := lib.Root()
	if job.artistDir != "" {
		dir = filepath.Join(dir, job.artistDir)
	}
	a := model.NewArtist(name, dir, lib.Type)
	ix.cart.AddArtist(a)
	ix.persist(stats, ix.sink.SaveArtist(ctx, a), "artist", a.ID)
	return a, nil
}

func (ix *Indexer) resolveAlbum(ctx context.Context, artist model.Artist, folder string, stats *Stats) (model.Album, error) {
	if al, err := ix.cart.FindAlbum(artist.ID, folder); err == nil {
		return al, nil
	}
	al := model.NewAlbum(artist.ID, folder)
	ix.cart.AddAlbum(al)
	if err := ix.cart.AttachAlbum(al.ID); err != nil {
		return model.Album{}, err
	}
	ix.persist(stats, ix.sink.SaveAlbum(ctx, al), "album", al.ID)
	return al, nil
}

// applyAlbumTags copies display attributes from a track's tags onto its
// album and records the cover image.
func (ix *Indexer) applyAlbumTags(ctx context.Context, album *model.Album, job fileJob, rec metadata.TagRecord, stats *Stats) {
	next := album.Clone()
	if rec.Album.Valid && rec.Album.V != next.Name {
		next.Name = rec.Album.V
	}
	if rec.Year.Valid && next.Year == 0 {
		next.Year = rec.Year.V
	}
	for _, g := range rec.Genres {
		next.AddGenre(g)
	}
	if rec.Narrator.Valid && next.Narrator == "" {
		next.Narrator = rec.Narrator.V
	}
	if next.ArtPath == "" {
		switch {
		case job.cover != "":
			next.ArtPath = job.cover
		case rec.Picture != nil && ix.artwork != nil:
			ext := rec.Picture.Ext
			if ext == "" {
				if exts, _ := mime.ExtensionsByType(rec.Picture.MIMEType); len(exts) > 0 {
					ext = exts[0]
				}
			}
			key := fmt.Sprintf("albums/%s", album.ID)
			if ext != "" {
				key += "." + trimDot(ext)
			}
			loc, err := ix.artwork.Put(ctx, key, rec.Picture.Data, rec.Picture.MIMEType)
			if err != nil {
				logger.Warn("store embedded artwork", logger.Stringer("album", album.ID), logger.ErrorField(err))
			} else {
				next.ArtPath = loc
			}
		}
	}

	if albumEqual(*album, next) {
		return
	}
	if err := ix.cart.UpdateAlbum(album.ID, func(a *model.Album) {
		a.Name, a.Year, a.Genres, a.Narrator, a.ArtPath = next.Name, next.Year, next.Genres, next.Narrator, next.ArtPath
	}); err != nil {
		return
	}
	*album = next
	ix.persist(stats, ix.sink.SaveAlbum(ctx, next), "album", next.ID)
}

func albumEqual(a, b model.Album) bool {
	return a.Name == b.Name && a.Year == b.Year && a.Narrator == b.Narrator &&
		a.ArtPath == b.ArtPath && slices.Equal(a.Genres, b.Genres)
}

func trimDot(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}

// commitTrack creates or refreshes the track for (lib, rel). An existing
// track is found by its path in this library or, under the same album, by
// disc, position and title; the latter covers overlapping libraries.
func (ix *Indexer) commitTrack(ctx context.Context, lib *library.Library, artist model.Artist, album model.Album,
	rel string, rec metadata.TagRecord, stats *Stats) (bool, error) {

	attrs := func(t *model.Track) {
		t.Title = rec.Title.V
		t.Disc = 1
		if rec.Disc.Valid {
			t.Disc = rec.Disc.V
		}
		t.Position = 0
		if rec.Position.Valid {
			t.Position = rec.Position.V
		}
		if rec.Duration.Valid {
			t.Duration = rec.Duration.V
		}
		t.Description = rec.Description.V
		t.Narrator = rec.Narrator.V
		t.Genres = slices.Clone(rec.Genres)
		t.SetPath(lib.ID, rel)
	}

	existing, err := ix.cart.FindTrackByPath(lib.ID, rel)
	if err != nil && album.ID != model.NilID {
		disc := 1
		if rec.Disc.Valid {
			disc = rec.Disc.V
		}
		existing, err = ix.cart.FindTrackInAlbum(album.ID, disc, rec.Position.V, rec.Title.V)
		if err == nil {
			if other, ok := existing.PathFor(lib.ID); ok && other != rel {
				// a second file of the same library, e.g. another format
				err = model.ErrNotFound
			}
		}
	}

	if err == nil {
		if existing.ArtistID != artist.ID || existing.AlbumID != album.ID {
			// same path, different placement: the artist or album was renamed
			if _, err := ix.removeTrack(ctx, existing, stats); err != nil {
				return false, err
			}
		} else {
			if err := ix.cart.UpdateTrack(existing.ID, attrs); err != nil {
				return false, err
			}
			t, _ := ix.cart.GetTrack(existing.ID)
			ix.persist(stats, ix.sink.SaveTrack(ctx, t), "track", t.ID)
			return false, nil
		}
	} else if !errors.Is(err, model.ErrNotFound) {
		return false, err
	}

	t := model.NewTrack(artist.ID, album.ID)
	attrs(&t)
	ix.cart.AddTrack(t)
	if err := ix.cart.AttachTrack(t.ID); err != nil {
		_ = ix.cart.RemoveTrack(t.ID)
		return false, err
	}
	ix.persist(stats, ix.sink.SaveTrack(ctx, t), "track", t.ID)
	return true, nil
}

func (ix *Indexer) persist(stats *Stats, err error, kind string, id model.ID) {
	if err == nil {
		return
	}
	if stats != nil {
		stats.PersistErrors++
	}
	logger.Warn("persist "+kind, logger.Stringer("id", id), logger.ErrorField(err))
}
