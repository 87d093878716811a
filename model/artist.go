package model

import "slices"

// Artist 表示一位艺术家（或有声书作者、播客节目）
type Artist struct {
	ID   ID          `json:"id"`
	Name string      `json:"name"`
	Path string      `json:"path"` // 首次发现时所在的目录
	Type LibraryType `json:"type"`

	Albums []ID `json:"albums"`
	Tracks []ID `json:"tracks"` // 不属于任何专辑的曲目，例如播客单集
}

// NewArtist 创建一个带新 ID 的艺术家
func NewArtist(name, path string, typ LibraryType) Artist {
	return Artist{ID: NewID(), Name: name, Path: path, Type: typ}
}

// AddAlbum 记录专辑关系，重复添加无效果
func (a *Artist) AddAlbum(id ID) { a.Albums = appendUniqueID(a.Albums, id) }

// RemoveAlbum 移除专辑关系
func (a *Artist) RemoveAlbum(id ID) { a.Albums = removeID(a.Albums, id) }

// AddTrack 记录直属曲目
func (a *Artist) AddTrack(id ID) { a.Tracks = appendUniqueID(a.Tracks, id) }

// RemoveTrack 移除直属曲目
func (a *Artist) RemoveTrack(id ID) { a.Tracks = removeID(a.Tracks, id) }

// Clone 返回不共享切片的副本
func (a Artist) Clone() Artist {
	a.Albums = slices.Clone(a.Albums)
	a.Tracks = slices.Clone(a.Tracks)
	return a
}
