package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"Atlas/core/library"
	"Atlas/core/metadata"
	"Atlas/model"
)

// ErrUnsupportedLayout is returned for files nested below album level.
var ErrUnsupportedLayout = errors.New("file is nested deeper than album level")

// IndexFile (re)indexes a single audio file of lib.
func (ix *Indexer) IndexFile(ctx context.Context, lib *library.Library, abs string) (created bool, err error) {
	if metadata.Classify(abs) != metadata.KindAudio {
		return false, fmt.Errorf("%s: not an audio file", abs)
	}
	rel, err := lib.RelativePathOf(abs)
	if err != nil {
		return false, err
	}
	artistDir, albumDir, ok := placement(rel)
	if !ok {
		return false, fmt.Errorf("%s: %w", rel, ErrUnsupportedLayout)
	}
	job := fileJob{abs: abs, rel: rel, artistDir: artistDir, albumDir: albumDir}
	if albumDir != "" {
		job.cover = findCover(filepath.Dir(abs))
	}

	rec, xerr := ix.extractor.Extract(abs, lib.Type)
	var stats Stats
	ix.mergeResult(ctx, lib, result{job: job, rec: rec, err: xerr}, &stats)
	if stats.TracksCreated+stats.TracksUpdated == 0 {
		return false, fmt.Errorf("%s: not indexed", rel)
	}
	return stats.TracksCreated > 0, nil
}

// RemovePath forgets that lib holds rel. The track is removed once no
// library path is left, and an album or artist left empty goes with it.
// It reports whether the track was removed.
func (ix *Indexer) RemovePath(ctx context.Context, lib *library.Library, rel string) (bool, error) {
	ix.mergeMu.Lock()
	defer ix.mergeMu.Unlock()

	t, err := ix.cart.FindTrackByPath(lib.ID, rel)
	if err != nil {
		return false, err
	}
	if err := ix.cart.UpdateTrack(t.ID, func(t *model.Track) { t.RemovePath(lib.ID) }); err != nil {
		return false, err
	}
	t, err = ix.cart.GetTrack(t.ID)
	if err != nil {
		return false, err
	}
	if len(t.Paths) > 0 {
		return false, ix.sink.SaveTrack(ctx, t)
	}
	return ix.removeTrack(ctx, t, nil)
}

// RemoveUnder drops every path of lib below the directory rel.
func (ix *Indexer) RemoveUnder(ctx context.Context, lib *library.Library, rel string) int {
	removed := 0
	for _, t := range ix.cart.TracksUnder(lib.ID, rel) {
		p, ok := t.PathFor(lib.ID)
		if !ok {
			continue
		}
		if gone, err := ix.RemovePath(ctx, lib, p); err == nil && gone {
			removed++
		}
	}
	return removed
}

// removeTrack removes t and prunes its album and artist when they are left
// empty. Callers hold mergeMu.
func (ix *Indexer) removeTrack(ctx context.Context, t model.Track, stats *Stats) (bool, error) {
	if err := ix.cart.RemoveTrack(t.ID); err != nil {
		return false, err
	}
	var errs []error
	errs = append(errs, ix.sink.DeleteTrack(ctx, t.ID))

	if t.HasAlbum() {
		if al, err := ix.cart.GetAlbum(t.AlbumID); err == nil && len(al.Tracks) == 0 {
			if ix.cart.RemoveAlbum(al.ID) == nil {
				errs = append(errs, ix.sink.DeleteAlbum(ctx, al.ID))
			}
		}
	}
	if ar, err := ix.cart.GetArtist(t.ArtistID); err == nil && len(ar.Albums) == 0 && len(ar.Tracks) == 0 {
		if ix.cart.RemoveArtist(ar.ID) == nil {
			errs = append(errs, ix.sink.DeleteArtist(ctx, ar.ID))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		ix.persist(stats, err, "removal", t.ID)
	}
	return true, err
}
