package model

import "slices"

// Album 表示一张专辑（或一本有声书）
type Album struct {
	ID       ID     `json:"id"`
	ArtistID ID     `json:"artistId"`
	Name     string `json:"name"`
	// FolderName 是目录名，决定图结构中的归属；Name 可被标签覆盖用于展示
	FolderName  string   `json:"folderName"`
	Year        int      `json:"year,omitempty"` // 0 表示未知
	Description string   `json:"description,omitempty"`
	Narrator    string   `json:"narrator,omitempty"`
	ArtPath     string   `json:"artPath,omitempty"`
	Genres      []string `json:"genres,omitempty"`

	Tracks []ID `json:"tracks"`
}

// NewAlbum 创建专辑，初始展示名等于目录名
func NewAlbum(artistID ID, folder string) Album {
	return Album{ID: NewID(), ArtistID: artistID, Name: folder, FolderName: folder}
}

// AddTrack 添加曲目关系
func (a *Album) AddTrack(id ID) { a.Tracks = appendUniqueID(a.Tracks, id) }

// RemoveTrack 移除曲目关系
func (a *Album) RemoveTrack(id ID) { a.Tracks = removeID(a.Tracks, id) }

// AddGenre 添加流派，忽略空值与重复
func (a *Album) AddGenre(g string) {
	if g == "" || slices.Contains(a.Genres, g) {
		return
	}
	a.Genres = append(a.Genres, g)
}

// Clone 返回不共享切片的副本
func (a Album) Clone() Album {
	a.Genres = slices.Clone(a.Genres)
	a.Tracks = slices.Clone(a.Tracks)
	return a
}
