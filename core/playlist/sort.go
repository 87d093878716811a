package playlist

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"Atlas/model"

	"golang.org/x/text/collate"
)

// SortModel 排序模型
type SortModel string

const (
	// SortNewest presents tracks in the order they were queued.
	SortNewest SortModel = "newest"
	// SortOldest is SortNewest reversed.
	SortOldest    SortModel = "oldest"
	SortAlbum     SortModel = "album"
	SortArtist    SortModel = "artist"
	SortTrackName SortModel = "track_name"
)

// SortModels lists the supported models.
var SortModels = []SortModel{SortNewest, SortOldest, SortAlbum, SortArtist, SortTrackName}

// ParseSortModel accepts the model names plus a few spellings used by the
// CLI.
func ParseSortModel(s string) (SortModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "newest", "default", "insertion":
		return SortNewest, nil
	case "oldest":
		return SortOldest, nil
	case "album", "by-album":
		return SortAlbum, nil
	case "artist", "by-artist":
		return SortArtist, nil
	case "track_name", "track-name", "title", "name":
		return SortTrackName, nil
	}
	return "", fmt.Errorf("unknown sort model %q", s)
}

// ApplyModel re-derives the presentation order. The cursor stays on the
// same track, wherever that track lands.
func (p *Playlist) ApplyModel(m SortModel) {
	p.model = m
	p.reorder()
	p.modified()
}

// reorder rebuilds order from queue and re-targets the cursor.
func (p *Playlist) reorder() {
	cur, hadCurrent := p.Current()

	order := slices.Clone(p.queue)
	switch p.model {
	case SortOldest:
		slices.Reverse(order)
	case SortAlbum, SortArtist, SortTrackName:
		p.sortByAttributes(order)
	}
	p.order = order

	if hadCurrent {
		p.cursor = slices.Index(p.order, cur)
	}
	if p.cursor >= len(p.order) {
		p.cursor = len(p.order) - 1
	}
}

// sortKey holds what the attribute models compare on. Tracks that no longer
// resolve sort after all others.
type sortKey struct {
	missing  bool
	title    string
	album    string
	artist   string
	year     int
	disc     int
	position int
}

func (p *Playlist) keyFor(id model.ID) sortKey {
	if p.source == nil {
		return sortKey{missing: true}
	}
	t, err := p.source.GetTrack(id)
	if err != nil {
		return sortKey{missing: true}
	}
	k := sortKey{title: t.Title, disc: t.Disc, position: t.Position}
	if t.HasAlbum() {
		if al, err := p.source.GetAlbum(t.AlbumID); err == nil {
			k.album = al.Name
			k.year = al.Year
		}
	}
	if ar, err := p.source.GetArtist(t.ArtistID); err == nil {
		k.artist = ar.Name
	}
	return k
}

func (p *Playlist) sortByAttributes(ids []model.ID) {
	keys := make(map[model.ID]sortKey, len(ids))
	for _, id := range ids {
		keys[id] = p.keyFor(id)
	}
	col := collate.New(p.locale)
	str := func(a, b string) int { return col.CompareString(a, b) }

	slices.SortStableFunc(ids, func(x, y model.ID) int {
		a, b := keys[x], keys[y]
		if a.missing != b.missing {
			if a.missing {
				return 1
			}
			return -1
		}
		switch p.model {
		case SortAlbum:
			return cmpChain(
				str(a.album, b.album),
				cmp.Compare(a.disc, b.disc),
				cmp.Compare(a.position, b.position),
				str(a.title, b.title),
			)
		case SortArtist:
			return cmpChain(
				str(a.artist, b.artist),
				cmp.Compare(a.year, b.year),
				str(a.album, b.album),
				cmp.Compare(a.disc, b.disc),
				cmp.Compare(a.position, b.position),
			)
		default:
			return str(a.title, b.title)
		}
	})
}

func cmpChain(results ...int) int {
	for _, r := range results {
		if r != 0 {
			return r
		}
	}
	return 0
}
