// Package repository persists the entity graph through GORM. Writes are
// write-through from the in-memory graph; reads happen once at startup.
package repository

import (
	"context"
	"fmt"

	"Atlas/core/library"
	"Atlas/core/playlist"
	"Atlas/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore GORM 实现的持久化存储
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建存储；调用方负责迁移 Models()
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func upsert(tx *gorm.DB, value interface{}) error {
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}

// ========== 媒体库 ==========

func (s *GormStore) SaveLibrary(ctx context.Context, d library.Descriptor) error {
	rec := libraryRecord(d)
	if err := upsert(s.db.WithContext(ctx), &rec); err != nil {
		return fmt.Errorf("save library %s: %w", d.ID, err)
	}
	return nil
}

// DeleteLibrary drops the library and every track path registered under it.
// Tracks left without a path are not touched here.
func (s *GormStore) DeleteLibrary(ctx context.Context, id model.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("library_id = ?", idString(id)).Delete(&TrackPathRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", idString(id)).Delete(&LibraryRecord{}).Error
	})
}

// ========== 实体 ==========

func (s *GormStore) SaveArtist(ctx context.Context, a model.Artist) error {
	rec := artistRecord(a)
	if err := upsert(s.db.WithContext(ctx), &rec); err != nil {
		return fmt.Errorf("save artist %s: %w", a.ID, err)
	}
	return nil
}

func (s *GormStore) SaveAlbum(ctx context.Context, a model.Album) error {
	rec := albumRecord(a)
	if err := upsert(s.db.WithContext(ctx), &rec); err != nil {
		return fmt.Errorf("save album %s: %w", a.ID, err)
	}
	return nil
}

// SaveTrack writes the track row and replaces its path rows in one
// transaction.
func (s *GormStore) SaveTrack(ctx context.Context, t model.Track) error {
	rec, paths := trackRecords(t)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, &rec); err != nil {
			return err
		}
		if err := tx.Where("track_id = ?", rec.ID).Delete(&TrackPathRecord{}).Error; err != nil {
			return err
		}
		if len(paths) == 0 {
			return nil
		}
		return tx.Create(&paths).Error
	})
	if err != nil {
		return fmt.Errorf("save track %s: %w", t.ID, err)
	}
	return nil
}

func (s *GormStore) DeleteArtist(ctx context.Context, id model.ID) error {
	return s.db.WithContext(ctx).Where("id = ?", idString(id)).Delete(&ArtistRecord{}).Error
}

func (s *GormStore) DeleteAlbum(ctx context.Context, id model.ID) error {
	return s.db.WithContext(ctx).Where("id = ?", idString(id)).Delete(&AlbumRecord{}).Error
}

func (s *GormStore) DeleteTrack(ctx context.Context, id model.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("track_id = ?", idString(id)).Delete(&TrackPathRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", idString(id)).Delete(&TrackRecord{}).Error
	})
}

// ========== 播放列表 ==========

// SavePlaylist writes a user playlist and its ordered entries. Ephemeral
// playlists are ignored.
func (s *GormStore) SavePlaylist(ctx context.Context, snap playlist.Snapshot) error {
	if snap.Ephemeral {
		return nil
	}
	rec, entries := playlistRecords(snap)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, &rec); err != nil {
			return err
		}
		if err := tx.Where("playlist_id = ?", rec.ID).Delete(&PlaylistTrackRecord{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
	if err != nil {
		return fmt.Errorf("save playlist %s: %w", snap.ID, err)
	}
	return nil
}

func (s *GormStore) DeletePlaylist(ctx context.Context, id model.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", idString(id)).Delete(&PlaylistTrackRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", idString(id)).Delete(&PlaylistRecord{}).Error
	})
}

// ========== 读取 ==========

// Dump 是存储中的全部记录
type Dump struct {
	Libraries      []LibraryRecord
	Artists        []ArtistRecord
	Albums         []AlbumRecord
	Tracks         []TrackRecord
	Paths          []TrackPathRecord
	Playlists      []PlaylistRecord
	PlaylistTracks []PlaylistTrackRecord
}

// Load reads every row. Paths come ordered by (track, seq) and playlist
// entries by (playlist, position).
func (s *GormStore) Load(ctx context.Context) (*Dump, error) {
	var d Dump
	db := s.db.WithContext(ctx)
	steps := []struct {
		name  string
		query *gorm.DB
		dest  interface{}
	}{
		{"libraries", db.Order("name"), &d.Libraries},
		{"artists", db.Order("name"), &d.Artists},
		{"albums", db.Order("artist_id, name"), &d.Albums},
		{"tracks", db.Order("artist_id, disc, position"), &d.Tracks},
		{"track paths", db.Order("track_id, seq"), &d.Paths},
		{"playlists", db.Order("name"), &d.Playlists},
		{"playlist tracks", db.Order("playlist_id, position"), &d.PlaylistTracks},
	}
	for _, step := range steps {
		if err := step.query.Find(step.dest).Error; err != nil {
			return nil, fmt.Errorf("load %s: %w", step.name, err)
		}
	}
	return &d, nil
}
