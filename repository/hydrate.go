package repository

import (
	"context"

	"Atlas/core/cartographer"
	"Atlas/core/library"
	"Atlas/core/playlist"
	"Atlas/logger"
)

// Loader reads the stored graph.
type Loader interface {
	Load(ctx context.Context) (*Dump, error)
}

// HydrateStats counts what was restored and what was dropped as dangling.
type HydrateStats struct {
	Libraries int
	Artists   int
	Albums    int
	Tracks    int
	Playlists int
	Skipped   int
}

// Hydrate rebuilds libraries, entities, relations and playlists from the
// store into an empty graph, reusing the stored ids. Rows whose relations
// no longer resolve are skipped and logged.
func Hydrate(ctx context.Context, store Loader, cart *cartographer.Cartographer, libs *library.Registry,
	env library.Env, opts ...playlist.Option) (HydrateStats, error) {

	var st HydrateStats
	d, err := store.Load(ctx)
	if err != nil {
		return st, err
	}

	for _, rec := range d.Libraries {
		desc, err := rec.descriptor()
		if err != nil {
			logger.Warn("skip stored library", logger.String("id", rec.ID), logger.ErrorField(err))
			st.Skipped++
			continue
		}
		if libs.Add(library.FromDescriptor(desc, env)) {
			st.Libraries++
		}
	}

	for _, rec := range d.Artists {
		a, err := rec.entity()
		if err != nil {
			logger.Warn("skip stored artist", logger.String("id", rec.ID), logger.ErrorField(err))
			st.Skipped++
			continue
		}
		if cart.AddArtist(a) {
			st.Artists++
		}
	}

	for _, rec := range d.Albums {
		al, err := rec.entity()
		added := err == nil && cart.AddAlbum(al)
		if added {
			if err = cart.AttachAlbum(al.ID); err != nil {
				_ = cart.RemoveAlbum(al.ID)
			}
		}
		if err != nil {
			logger.Warn("skip stored album", logger.String("id", rec.ID), logger.ErrorField(err))
			st.Skipped++
			continue
		}
		if added {
			st.Albums++
		}
	}

	paths := make(map[string][]TrackPathRecord, len(d.Tracks))
	for _, p := range d.Paths {
		paths[p.TrackID] = append(paths[p.TrackID], p)
	}
	for _, rec := range d.Tracks {
		t, err := rec.entity(paths[rec.ID])
		added := err == nil && cart.AddTrack(t)
		if added {
			if err = cart.AttachTrack(t.ID); err != nil {
				_ = cart.RemoveTrack(t.ID)
			}
		}
		if err != nil {
			logger.Warn("skip stored track", logger.String("id", rec.ID), logger.ErrorField(err))
			st.Skipped++
			continue
		}
		if added {
			st.Tracks++
		}
	}

	entries := make(map[string][]PlaylistTrackRecord, len(d.Playlists))
	for _, e := range d.PlaylistTracks {
		entries[e.PlaylistID] = append(entries[e.PlaylistID], e)
	}
	opts = append([]playlist.Option{playlist.WithBus(cart.Bus())}, opts...)
	for _, rec := range d.Playlists {
		snap, err := rec.snapshot(entries[rec.ID])
		if err != nil {
			logger.Warn("skip stored playlist", logger.String("id", rec.ID), logger.ErrorField(err))
			st.Skipped++
			continue
		}
		if cart.AddPlaylist(playlist.Restore(snap, cart, opts...)) {
			st.Playlists++
		}
	}

	logger.Info("graph restored",
		logger.Int("libraries", st.Libraries),
		logger.Int("artists", st.Artists),
		logger.Int("albums", st.Albums),
		logger.Int("tracks", st.Tracks),
		logger.Int("playlists", st.Playlists),
		logger.Int("skipped", st.Skipped))
	return st, nil
}
