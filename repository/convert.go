package repository

import (
	"slices"

	"Atlas/core/library"
	"Atlas/core/playlist"
	"Atlas/model"
)

func idString(id model.ID) string { return id.String() }

func optionalID(id model.ID) *string {
	if id == model.NilID {
		return nil
	}
	s := id.String()
	return &s
}

func parseOptionalID(s *string) (model.ID, error) {
	if s == nil || *s == "" {
		return model.NilID, nil
	}
	return model.ParseID(*s)
}

func libraryRecord(d library.Descriptor) LibraryRecord {
	rec := LibraryRecord{
		ID:           idString(d.ID),
		Type:         string(d.Type),
		RelativePath: d.RelativePath,
		Name:         d.Name,
	}
	if d.StorageUUID != "" {
		u := d.StorageUUID
		rec.StorageUUID = &u
	}
	return rec
}

func (r LibraryRecord) descriptor() (library.Descriptor, error) {
	id, err := model.ParseID(r.ID)
	if err != nil {
		return library.Descriptor{}, err
	}
	typ, err := model.ParseLibraryType(r.Type)
	if err != nil {
		return library.Descriptor{}, err
	}
	d := library.Descriptor{ID: id, Type: typ, RelativePath: r.RelativePath, Name: r.Name}
	if r.StorageUUID != nil {
		d.StorageUUID = *r.StorageUUID
	}
	return d, nil
}

func artistRecord(a model.Artist) ArtistRecord {
	return ArtistRecord{ID: idString(a.ID), Name: a.Name, Path: a.Path, Type: string(a.Type)}
}

func (r ArtistRecord) entity() (model.Artist, error) {
	id, err := model.ParseID(r.ID)
	if err != nil {
		return model.Artist{}, err
	}
	return model.Artist{ID: id, Name: r.Name, Path: r.Path, Type: model.LibraryType(r.Type)}, nil
}

func albumRecord(a model.Album) AlbumRecord {
	return AlbumRecord{
		ID:          idString(a.ID),
		ArtistID:    idString(a.ArtistID),
		Name:        a.Name,
		FolderName:  a.FolderName,
		Year:        a.Year,
		Description: a.Description,
		Narrator:    a.Narrator,
		ArtPath:     a.ArtPath,
		Genres:      StringList(slices.Clone(a.Genres)),
	}
}

func (r AlbumRecord) entity() (model.Album, error) {
	id, err := model.ParseID(r.ID)
	if err != nil {
		return model.Album{}, err
	}
	artistID, err := model.ParseID(r.ArtistID)
	if err != nil {
		return model.Album{}, err
	}
	return model.Album{
		ID:          id,
		ArtistID:    artistID,
		Name:        r.Name,
		FolderName:  r.FolderName,
		Year:        r.Year,
		Description: r.Description,
		Narrator:    r.Narrator,
		ArtPath:     r.ArtPath,
		Genres:      []string(r.Genres),
	}, nil
}

func trackRecords(t model.Track) (TrackRecord, []TrackPathRecord) {
	rec := TrackRecord{
		ID:               idString(t.ID),
		ArtistID:         idString(t.ArtistID),
		AlbumID:          optionalID(t.AlbumID),
		Disc:             t.Disc,
		Position:         t.Position,
		Duration:         t.Duration,
		Title:            t.Title,
		Description:      t.Description,
		Narrator:         t.Narrator,
		Genres:           StringList(slices.Clone(t.Genres)),
		PlaybackPosition: t.PlaybackPosition,
	}
	paths := make([]TrackPathRecord, 0, len(t.Paths))
	for i, p := range t.Paths {
		paths = append(paths, TrackPathRecord{
			TrackID:      rec.ID,
			LibraryID:    idString(p.LibraryID),
			RelativePath: p.RelativePath,
			Seq:          i,
		})
	}
	return rec, paths
}

// entity rebuilds the track; paths must already be ordered by Seq.
func (r TrackRecord) entity(paths []TrackPathRecord) (model.Track, error) {
	id, err := model.ParseID(r.ID)
	if err != nil {
		return model.Track{}, err
	}
	artistID, err := model.ParseID(r.ArtistID)
	if err != nil {
		return model.Track{}, err
	}
	albumID, err := parseOptionalID(r.AlbumID)
	if err != nil {
		return model.Track{}, err
	}
	t := model.Track{
		ID:               id,
		ArtistID:         artistID,
		AlbumID:          albumID,
		Disc:             r.Disc,
		Position:         r.Position,
		Duration:         r.Duration,
		Title:            r.Title,
		Description:      r.Description,
		Narrator:         r.Narrator,
		Genres:           []string(r.Genres),
		PlaybackPosition: r.PlaybackPosition,
	}
	if t.Disc == 0 {
		t.Disc = 1
	}
	for _, p := range paths {
		lib, err := model.ParseID(p.LibraryID)
		if err != nil {
			return model.Track{}, err
		}
		t.SetPath(lib, p.RelativePath)
	}
	return t, nil
}

func playlistRecords(s playlist.Snapshot) (PlaylistRecord, []PlaylistTrackRecord) {
	rec := PlaylistRecord{
		ID:              idString(s.ID),
		Name:            s.Name,
		ArtPath:         s.ArtPath,
		SortModel:       string(s.Model),
		CurrentPosition: s.Cursor,
		Repeat:          s.Repeat,
		Shuffle:         s.Shuffle,
	}
	if s.Current != model.NilID {
		rec.CurrentTrackID = idString(s.Current)
	}
	for _, id := range s.ShuffleOrder {
		rec.ShuffleOrder = append(rec.ShuffleOrder, idString(id))
	}
	entries := make([]PlaylistTrackRecord, 0, len(s.Queue))
	for i, id := range s.Queue {
		entries = append(entries, PlaylistTrackRecord{PlaylistID: rec.ID, Position: i, TrackID: idString(id)})
	}
	return rec, entries
}

// snapshot rebuilds the playlist state; entries must be ordered by Position.
func (r PlaylistRecord) snapshot(entries []PlaylistTrackRecord) (playlist.Snapshot, error) {
	id, err := model.ParseID(r.ID)
	if err != nil {
		return playlist.Snapshot{}, err
	}
	s := playlist.Snapshot{
		ID:      id,
		Name:    r.Name,
		ArtPath: r.ArtPath,
		Model:   playlist.SortModel(r.SortModel),
		Cursor:  r.CurrentPosition,
		Repeat:  r.Repeat,
		Shuffle: r.Shuffle,
	}
	if r.CurrentTrackID != "" {
		if cur, err := model.ParseID(r.CurrentTrackID); err == nil {
			s.Current = cur
		}
	}
	for _, e := range entries {
		tid, err := model.ParseID(e.TrackID)
		if err != nil {
			return playlist.Snapshot{}, err
		}
		s.Queue = append(s.Queue, tid)
	}
	for _, raw := range r.ShuffleOrder {
		if tid, err := model.ParseID(raw); err == nil {
			s.ShuffleOrder = append(s.ShuffleOrder, tid)
		}
	}
	return s, nil
}
