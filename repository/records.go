package repository

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StringList 自定义类型用于 GORM JSON 字段的自动扫描
type StringList []string

// Scan 实现 sql.Scanner 接口
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*s = nil
		return nil
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*s = nil
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Value 实现 driver.Valuer 接口
func (s StringList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// LibraryRecord 媒体库
type LibraryRecord struct {
	ID           string  `gorm:"primaryKey;size:36"`
	Type         string  `gorm:"size:16;not null"`
	StorageUUID  *string `gorm:"size:64"`
	RelativePath string  `gorm:"size:1024;not null"`
	Name         string  `gorm:"size:255"`
	UpdatedAt    time.Time
}

func (LibraryRecord) TableName() string { return "libraries" }

// ArtistRecord 艺术家
type ArtistRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:255;not null;index"`
	Path      string `gorm:"size:1024"`
	Type      string `gorm:"size:16"`
	UpdatedAt time.Time
}

func (ArtistRecord) TableName() string { return "artists" }

// AlbumRecord 专辑
type AlbumRecord struct {
	ID          string     `gorm:"primaryKey;size:36"`
	ArtistID    string     `gorm:"size:36;not null;index"`
	Name        string     `gorm:"size:255"`
	FolderName  string     `gorm:"size:255"`
	Year        int        `gorm:"default:0"`
	Description string     `gorm:"type:text"`
	Narrator    string     `gorm:"size:255"`
	ArtPath     string     `gorm:"size:1024"`
	Genres      StringList `gorm:"type:text"`
	UpdatedAt   time.Time
}

func (AlbumRecord) TableName() string { return "albums" }

// TrackRecord 曲目；AlbumID 为空表示直接挂在艺术家下
type TrackRecord struct {
	ID               string     `gorm:"primaryKey;size:36"`
	ArtistID         string     `gorm:"size:36;not null;index"`
	AlbumID          *string    `gorm:"size:36;index"`
	Disc             int        `gorm:"default:1"`
	Position         int        `gorm:"default:0"`
	Duration         int        `gorm:"default:0"`
	Title            string     `gorm:"size:512"`
	Description      string     `gorm:"type:text"`
	Narrator         string     `gorm:"size:255"`
	Genres           StringList `gorm:"type:text"`
	PlaybackPosition int        `gorm:"default:0"`
	UpdatedAt        time.Time
}

func (TrackRecord) TableName() string { return "tracks" }

// TrackPathRecord 曲目在某个媒体库下的相对路径，Seq 保持解析顺序
type TrackPathRecord struct {
	TrackID      string `gorm:"primaryKey;size:36"`
	LibraryID    string `gorm:"primaryKey;size:36;index"`
	RelativePath string `gorm:"size:1024;not null"`
	Seq          int    `gorm:"not null"`
}

func (TrackPathRecord) TableName() string { return "track_paths" }

// PlaylistRecord 用户播放列表
type PlaylistRecord struct {
	ID              string     `gorm:"primaryKey;size:36"`
	Name            string     `gorm:"size:255"`
	ArtPath         string     `gorm:"size:1024"`
	SortModel       string     `gorm:"size:32"`
	CurrentPosition int        `gorm:"default:-1"`
	CurrentTrackID  string     `gorm:"size:36"`
	Repeat          bool       `gorm:"default:false"`
	Shuffle         bool       `gorm:"default:false"`
	ShuffleOrder    StringList `gorm:"type:text"`
	UpdatedAt       time.Time
}

func (PlaylistRecord) TableName() string { return "playlists" }

// PlaylistTrackRecord 播放列表条目，按插入顺序编号
type PlaylistTrackRecord struct {
	PlaylistID string `gorm:"primaryKey;size:36"`
	Position   int    `gorm:"primaryKey"`
	TrackID    string `gorm:"size:36;not null"`
}

func (PlaylistTrackRecord) TableName() string { return "playlist_tracks" }

// Models 需要迁移的全部模型
func Models() []interface{} {
	return []interface{}{
		&LibraryRecord{}, &ArtistRecord{}, &AlbumRecord{}, &TrackRecord{},
		&TrackPathRecord{}, &PlaylistRecord{}, &PlaylistTrackRecord{},
	}
}
