// Package events is the typed change-notification channel between the
// library engines and their observers.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"Atlas/model"
)

// Kind 事件类型
type Kind string

const (
	ArtistAdded   Kind = "artist_added"
	ArtistRemoved Kind = "artist_removed"

	AlbumAdded   Kind = "album_added"
	AlbumUpdated Kind = "album_updated"
	AlbumRemoved Kind = "album_removed"

	TrackAdded   Kind = "track_added"
	TrackUpdated Kind = "track_updated"
	TrackRemoved Kind = "track_removed"

	PlaylistAdded    Kind = "playlist_added"
	PlaylistRemoved  Kind = "playlist_removed"
	PlaylistModified Kind = "playlist_modified"

	// 索引生命周期，EntityID 为空，LibraryID 为被索引的库
	IndexStarted   Kind = "index_started"
	IndexFinished  Kind = "index_finished"
	IndexCancelled Kind = "index_cancelled"
)

// Event 单条变更通知
type Event struct {
	Kind      Kind      `json:"kind"`
	EntityID  model.ID  `json:"entityId"`
	LibraryID model.ID  `json:"libraryId"`
	Time      time.Time `json:"time"`
}

const subscriberBuffer = 128

type subscriber struct {
	ch    chan Event
	kinds map[Kind]struct{} // 为空表示订阅全部
}

func (s *subscriber) wants(k Kind) bool {
	if len(s.kinds) == 0 {
		return true
	}
	_, ok := s.kinds[k]
	return ok
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event and the drop is counted. A nil *Bus
// accepts every call and does nothing.
type Bus struct {
	mu      sync.RWMutex
	subs    map[*subscriber]struct{}
	dropped atomic.Int64
	closed  bool
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{subs: make(map[*subscriber]struct{})}
}

// Subscribe registers interest in kinds (all kinds when none are given).
// The returned cancel func closes the channel and is safe to call twice.
func (b *Bus) Subscribe(kinds ...Kind) (<-chan Event, func()) {
	if b == nil {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	s := &subscriber{ch: make(chan Event, subscriberBuffer)}
	if len(kinds) > 0 {
		s.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.ch)
		return s.ch, func() {}
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[s]; ok {
				delete(b.subs, s)
				close(s.ch)
			}
		})
	}
}

// Publish 非阻塞地投递事件
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		if !s.wants(e.Kind) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Emit is shorthand for publishing an entity event.
func (b *Bus) Emit(kind Kind, entity, library model.ID) {
	b.Publish(Event{Kind: kind, EntityID: entity, LibraryID: library})
}

// Dropped 返回因订阅者缓冲区满而丢弃的事件数
func (b *Bus) Dropped() int64 {
	if b == nil {
		return 0
	}
	return b.dropped.Load()
}

// Close 关闭所有订阅通道，之后的订阅立即得到已关闭的通道
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		close(s.ch)
	}
	b.subs = make(map[*subscriber]struct{})
}
