// Package playlist orders and navigates a sequence of tracks. A Playlist is
// driven from one control goroutine; it is not safe for concurrent writers.
package playlist

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"Atlas/core/events"
	"Atlas/model"

	"golang.org/x/text/language"
)

// TrackSource resolves ids for the sort models.
type TrackSource interface {
	GetTrack(id model.ID) (model.Track, error)
	GetAlbum(id model.ID) (model.Album, error)
	GetArtist(id model.ID) (model.Artist, error)
}

// Playlist 播放列表：插入顺序队列 + 展示顺序 + 游标
type Playlist struct {
	ID        model.ID
	Name      string
	ArtPath   string
	Ephemeral bool

	queue  []model.ID // insertion order
	order  []model.ID // presentation order under the active sort model
	cursor int        // index into order, -1 before the first track
	model  SortModel
	repeat bool

	shuffle []model.ID // visiting order, nil when shuffle is off

	source TrackSource
	locale language.Tag
	rng    *rand.Rand
	bus    *events.Bus
}

// Option configures a Playlist.
type Option func(*Playlist)

// WithBus publishes PlaylistModified events on b.
func WithBus(b *events.Bus) Option { return func(p *Playlist) { p.bus = b } }

// WithLocale sets the collation used by the name-based sort models.
func WithLocale(tag language.Tag) Option { return func(p *Playlist) { p.locale = tag } }

// WithRand fixes the shuffle source.
func WithRand(r *rand.Rand) Option { return func(p *Playlist) { p.rng = r } }

// New creates an empty user playlist.
func New(name string, src TrackSource, opts ...Option) *Playlist {
	p := &Playlist{
		ID:     model.NewID(),
		Name:   name,
		cursor: -1,
		model:  SortNewest,
		source: src,
		locale: language.English,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return p
}

// NewEphemeral creates a transient playlist over tracks, e.g. to play an
// album right away. It is never persisted as a user playlist.
func NewEphemeral(name string, src TrackSource, tracks []model.ID, opts ...Option) *Playlist {
	p := New(name, src, opts...)
	p.Ephemeral = true
	p.Add(tracks...)
	return p
}

// SetSource replaces the resolver, e.g. after rehydration.
func (p *Playlist) SetSource(src TrackSource) { p.source = src }

// SetBus sets the bus PlaylistModified events are published on.
func (p *Playlist) SetBus(b *events.Bus) { p.bus = b }

func (p *Playlist) modified() {
	p.bus.Emit(events.PlaylistModified, p.ID, model.NilID)
}

// Len 曲目数量
func (p *Playlist) Len() int { return len(p.order) }

// Tracks returns the ids in presentation order.
func (p *Playlist) Tracks() []model.ID { return slices.Clone(p.order) }

// Queue returns the ids in insertion order.
func (p *Playlist) Queue() []model.ID { return slices.Clone(p.queue) }

// Cursor is the current index into Tracks, or -1.
func (p *Playlist) Cursor() int { return p.cursor }

func (p *Playlist) Model() SortModel { return p.model }

func (p *Playlist) Repeat() bool { return p.repeat }

func (p *Playlist) SetRepeat(on bool) {
	p.repeat = on
	p.modified()
}

// Current returns the track under the cursor.
func (p *Playlist) Current() (model.ID, bool) {
	if p.cursor < 0 || p.cursor >= len(p.order) {
		return model.NilID, false
	}
	return p.order[p.cursor], true
}

// Contains 判断曲目是否在列表中
func (p *Playlist) Contains(id model.ID) bool { return slices.Contains(p.queue, id) }

// Add appends tracks that are not already queued. The cursor keeps its
// track.
func (p *Playlist) Add(ids ...model.ID) {
	var added []model.ID
	for _, id := range ids {
		if id == model.NilID || slices.Contains(p.queue, id) || slices.Contains(added, id) {
			continue
		}
		added = append(added, id)
	}
	if len(added) == 0 {
		return
	}
	p.queue = append(p.queue, added...)
	if p.shuffle != nil {
		p.extendShuffle(added)
	}
	p.reorder()
	p.modified()
}

// Remove drops a track. Removing the current track keeps the cursor value,
// so the following track slides into place; past the end it is clamped to
// the last index. With shuffle on, the following track is taken from the
// shuffle order.
func (p *Playlist) Remove(id model.ID) bool {
	idx := slices.Index(p.order, id)
	if idx < 0 {
		return false
	}
	spos := -1
	p.queue = slices.DeleteFunc(p.queue, func(v model.ID) bool { return v == id })
	p.order = slices.Delete(p.order, idx, idx+1)
	if p.shuffle != nil {
		spos = slices.Index(p.shuffle, id)
		p.shuffle = slices.DeleteFunc(p.shuffle, func(v model.ID) bool { return v == id })
	}

	switch {
	case idx == p.cursor && spos >= 0:
		// 随机模式下由随机顺序里的下一首接替
		if spos >= len(p.shuffle) {
			spos = len(p.shuffle) - 1
		}
		p.cursor = -1
		if spos >= 0 {
			p.cursor = slices.Index(p.order, p.shuffle[spos])
		}
	case idx < p.cursor:
		p.cursor--
	case idx == p.cursor && p.cursor >= len(p.order):
		p.cursor = len(p.order) - 1
	}
	p.modified()
	return true
}

// Clear empties the playlist and resets the cursor.
func (p *Playlist) Clear() {
	p.queue, p.order = nil, nil
	if p.shuffle != nil {
		p.shuffle = []model.ID{}
	}
	p.cursor = -1
	p.modified()
}

// JumpTo moves the cursor onto id.
func (p *Playlist) JumpTo(id model.ID) error {
	idx := slices.Index(p.order, id)
	if idx < 0 {
		return fmt.Errorf("track %s not in playlist %s: %w", id, p.ID, model.ErrNotFound)
	}
	p.cursor = idx
	p.modified()
	return nil
}

// Next advances the cursor. At the end it reports false without moving,
// unless repeat is on, in which case the current track is returned again.
// With shuffle on the shuffle order is walked instead of the presentation
// order.
func (p *Playlist) Next() (model.ID, bool) {
	if len(p.order) == 0 {
		return model.NilID, false
	}
	if p.shuffle != nil {
		return p.step(+1)
	}
	if p.cursor >= len(p.order)-1 {
		if p.repeat && p.cursor >= 0 {
			return p.order[p.cursor], true
		}
		return model.NilID, false
	}
	p.cursor++
	p.modified()
	return p.order[p.cursor], true
}

// Previous is the mirror of Next at the first track.
func (p *Playlist) Previous() (model.ID, bool) {
	if len(p.order) == 0 || p.cursor < 0 {
		return model.NilID, false
	}
	if p.shuffle != nil {
		return p.step(-1)
	}
	if p.cursor == 0 {
		if p.repeat {
			return p.order[0], true
		}
		return model.NilID, false
	}
	p.cursor--
	p.modified()
	return p.order[p.cursor], true
}

// step walks the shuffle order by dir.
func (p *Playlist) step(dir int) (model.ID, bool) {
	pos := -1
	if cur, ok := p.Current(); ok {
		pos = slices.Index(p.shuffle, cur)
	}
	next := pos + dir
	if next < 0 || next >= len(p.shuffle) {
		if p.repeat && pos >= 0 {
			return p.shuffle[pos], true
		}
		return model.NilID, false
	}
	id := p.shuffle[next]
	p.cursor = slices.Index(p.order, id)
	p.modified()
	return id, true
}

// Snapshot is the state needed to restore a playlist.
type Snapshot struct {
	ID           model.ID   `json:"id"`
	Name         string     `json:"name"`
	ArtPath      string     `json:"artPath,omitempty"`
	Ephemeral    bool       `json:"ephemeral"`
	Queue        []model.ID `json:"queue"`
	Current      model.ID   `json:"current"`
	Cursor       int        `json:"cursor"`
	Model        SortModel  `json:"model"`
	Repeat       bool       `json:"repeat"`
	Shuffle      bool       `json:"shuffle"`
	ShuffleOrder []model.ID `json:"shuffleOrder,omitempty"`
}

// Snapshot captures the playlist.
func (p *Playlist) Snapshot() Snapshot {
	cur, _ := p.Current()
	s := Snapshot{
		ID:        p.ID,
		Name:      p.Name,
		ArtPath:   p.ArtPath,
		Ephemeral: p.Ephemeral,
		Queue:     p.Queue(),
		Current:   cur,
		Cursor:    p.cursor,
		Model:     p.model,
		Repeat:    p.repeat,
	}
	if p.shuffle != nil {
		s.Shuffle = true
		s.ShuffleOrder = slices.Clone(p.shuffle)
	}
	return s
}

// Restore rebuilds a playlist from a snapshot, keeping its id. The cursor
// follows the snapshot's current track when it is still queued.
func Restore(s Snapshot, src TrackSource, opts ...Option) *Playlist {
	p := New(s.Name, src, opts...)
	p.ID = s.ID
	p.ArtPath = s.ArtPath
	p.Ephemeral = s.Ephemeral
	p.repeat = s.Repeat
	for _, id := range s.Queue {
		if id != model.NilID && !slices.Contains(p.queue, id) {
			p.queue = append(p.queue, id)
		}
	}
	if m, err := ParseSortModel(string(s.Model)); err == nil {
		p.model = m
	}
	p.reorder()

	if s.Shuffle {
		p.shuffle = make([]model.ID, 0, len(p.queue))
		for _, id := range s.ShuffleOrder {
			if slices.Contains(p.queue, id) && !slices.Contains(p.shuffle, id) {
				p.shuffle = append(p.shuffle, id)
			}
		}
		var missing []model.ID
		for _, id := range p.queue {
			if !slices.Contains(p.shuffle, id) {
				missing = append(missing, id)
			}
		}
		p.shuffle = append(p.shuffle, missing...)
	}

	switch {
	case s.Current != model.NilID && slices.Contains(p.order, s.Current):
		p.cursor = slices.Index(p.order, s.Current)
	case s.Cursor >= 0 && s.Cursor < len(p.order):
		p.cursor = s.Cursor
	default:
		p.cursor = -1
	}
	return p
}
