// Package playback is the boundary towards the audio pipeline: it tells the
// pipeline which file to play and takes state notifications back.
package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Atlas/core/cartographer"
	"Atlas/core/library"
	"Atlas/core/playlist"
	"Atlas/logger"
	"Atlas/model"
)

// State 播放状态
type State string

const (
	Playing  State = "playing"
	Paused   State = "paused"
	Stopped  State = "stopped"
	Finished State = "finished"
)

// StateChange is a notification from the audio pipeline. Position is the
// playback offset into the current track.
type StateChange struct {
	State    State         `json:"state"`
	Position time.Duration `json:"position"`
}

// NowPlaying describes the current track for media-key bridges and the API.
type NowPlaying struct {
	TrackID  model.ID `json:"trackId"`
	Title    string   `json:"title"`
	Artist   string   `json:"artist"`
	Album    string   `json:"album,omitempty"`
	ArtPath  string   `json:"artPath,omitempty"`
	Duration int      `json:"duration"`
	Resume   int      `json:"resume"` // ms
	Path     string   `json:"path"`
}

// Store persists what playback changes.
type Store interface {
	SaveTrack(ctx context.Context, t model.Track) error
	SavePlaylist(ctx context.Context, s playlist.Snapshot) error
}

// SessionStore keeps ephemeral playlists across restarts.
type SessionStore interface {
	Save(ctx context.Context, s playlist.Snapshot) error
}

// Controller drives one active playlist.
type Controller struct {
	cart     *cartographer.Cartographer
	libs     *library.Registry
	store    Store        // may be nil
	sessions SessionStore // may be nil

	mu      sync.Mutex
	current *playlist.Playlist
}

func NewController(cart *cartographer.Cartographer, libs *library.Registry, store Store, sessions SessionStore) *Controller {
	return &Controller{cart: cart, libs: libs, store: store, sessions: sessions}
}

// SetPlaylist makes p the active playlist.
func (c *Controller) SetPlaylist(p *playlist.Playlist) {
	c.mu.Lock()
	c.current = p
	c.mu.Unlock()
}

// Playlist returns the active playlist, or nil.
func (c *Controller) Playlist() *playlist.Playlist {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// PlayNow replaces the active playlist with an ephemeral one over tracks and
// moves to its first track.
func (c *Controller) PlayNow(ctx context.Context, name string, tracks []model.ID, opts ...playlist.Option) (*playlist.Playlist, error) {
	if len(tracks) == 0 {
		return nil, fmt.Errorf("play now: no tracks: %w", model.ErrNotFound)
	}
	p := playlist.NewEphemeral(name, c.cart, tracks, append([]playlist.Option{playlist.WithBus(c.cart.Bus())}, opts...)...)
	p.Next()

	c.mu.Lock()
	c.current = p
	c.mu.Unlock()
	c.persist(ctx, p)
	return p, nil
}

// CurrentPath resolves the absolute path of the current track through the
// first available library that holds it.
func (c *Controller) CurrentPath() (string, error) {
	t, err := c.currentTrack()
	if err != nil {
		return "", err
	}
	return c.libs.ResolveTrackPath(t)
}

// NowPlaying builds the typed description of the current track.
func (c *Controller) NowPlaying() (NowPlaying, error) {
	t, err := c.currentTrack()
	if err != nil {
		return NowPlaying{}, err
	}
	np := NowPlaying{TrackID: t.ID, Title: t.Title, Duration: t.Duration, Resume: t.PlaybackPosition}
	if ar, err := c.cart.GetArtist(t.ArtistID); err == nil {
		np.Artist = ar.Name
	}
	if t.HasAlbum() {
		if al, err := c.cart.GetAlbum(t.AlbumID); err == nil {
			np.Album = al.Name
			np.ArtPath = al.ArtPath
		}
	}
	if p, err := c.libs.ResolveTrackPath(t); err == nil {
		np.Path = p
	}
	return np, nil
}

func (c *Controller) currentTrack() (model.Track, error) {
	p := c.Playlist()
	if p == nil {
		return model.Track{}, fmt.Errorf("no active playlist: %w", model.ErrNotFound)
	}
	id, ok := p.Current()
	if !ok {
		return model.Track{}, fmt.Errorf("playlist %s has no current track: %w", p.ID, model.ErrNotFound)
	}
	return c.cart.GetTrack(id)
}

// Next advances the active playlist and returns the new path. ok is false
// at the end of a non-repeating playlist.
func (c *Controller) Next(ctx context.Context) (string, bool, error) {
	return c.move(ctx, (*playlist.Playlist).Next)
}

// Previous is Next backwards.
func (c *Controller) Previous(ctx context.Context) (string, bool, error) {
	return c.move(ctx, (*playlist.Playlist).Previous)
}

func (c *Controller) move(ctx context.Context, step func(*playlist.Playlist) (model.ID, bool)) (string, bool, error) {
	p := c.Playlist()
	if p == nil {
		return "", false, fmt.Errorf("no active playlist: %w", model.ErrNotFound)
	}
	if _, ok := step(p); !ok {
		return "", false, nil
	}
	c.persist(ctx, p)
	path, err := c.CurrentPath()
	return path, err == nil, err
}

// Notify consumes a pipeline state change. Paused and Stopped store the
// resume point on the track; Finished clears it and advances the playlist.
// Only the track's resume position is ever changed.
func (c *Controller) Notify(ctx context.Context, ch StateChange) error {
	t, err := c.currentTrack()
	if err != nil {
		return err
	}

	var resume int
	switch ch.State {
	case Paused, Stopped:
		resume = int(ch.Position / time.Millisecond)
	case Finished:
		resume = 0
	default:
		return nil
	}

	if err := c.cart.UpdateTrack(t.ID, func(t *model.Track) { t.PlaybackPosition = resume }); err != nil {
		return err
	}
	if c.store != nil {
		updated, _ := c.cart.GetTrack(t.ID)
		if err := c.store.SaveTrack(ctx, updated); err != nil {
			logger.Warn("persist resume position", logger.Stringer("track", t.ID), logger.ErrorField(err))
		}
	}

	if ch.State == Finished {
		_, _, err := c.Next(ctx)
		return err
	}
	return nil
}

func (c *Controller) persist(ctx context.Context, p *playlist.Playlist) {
	snap := p.Snapshot()
	var err error
	switch {
	case p.Ephemeral && c.sessions != nil:
		err = c.sessions.Save(ctx, snap)
	case !p.Ephemeral && c.store != nil:
		err = c.store.SavePlaylist(ctx, snap)
	}
	if err != nil {
		logger.Warn("persist playlist state", logger.Stringer("playlist", p.ID), logger.ErrorField(err))
	}
}
