package server

import (
	"context"
	"net/http"

	"Atlas/core/playlist"
	"Atlas/logger"
	"Atlas/model"
)

type playlistView struct {
	ID        model.ID           `json:"id"`
	Name      string             `json:"name"`
	ArtPath   string             `json:"artPath,omitempty"`
	Ephemeral bool               `json:"ephemeral"`
	Model     playlist.SortModel `json:"model"`
	Repeat    bool               `json:"repeat"`
	Shuffle   bool               `json:"shuffle"`
	Length    int                `json:"length"`
	Cursor    int                `json:"cursor"`
	Current   *model.ID          `json:"current,omitempty"`
	Tracks    []model.ID         `json:"tracks,omitempty"`
}

func viewOf(p *playlist.Playlist, withTracks bool) playlistView {
	v := playlistView{
		ID:        p.ID,
		Name:      p.Name,
		ArtPath:   p.ArtPath,
		Ephemeral: p.Ephemeral,
		Model:     p.Model(),
		Repeat:    p.Repeat(),
		Shuffle:   p.Shuffled(),
		Length:    p.Len(),
		Cursor:    p.Cursor(),
	}
	if cur, ok := p.Current(); ok {
		v.Current = &cur
	}
	if withTracks {
		v.Tracks = p.Tracks()
	}
	return v
}

func (s *Server) savePlaylist(ctx context.Context, p *playlist.Playlist) {
	if p.Ephemeral || s.deps.Playlists == nil {
		return
	}
	if err := s.deps.Playlists.SavePlaylist(ctx, p.Snapshot()); err != nil {
		logger.Warn("persist playlist", logger.Stringer("playlist", p.ID), logger.ErrorField(err))
	}
}

// withPlaylist resolves {id} and runs fn under the playlist lock.
func (s *Server) withPlaylist(w http.ResponseWriter, r *http.Request, fn func(p *playlist.Playlist)) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	p, err := s.deps.Cart.GetPlaylist(id)
	if err != nil {
		writeError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(p)
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pls := s.deps.Cart.Playlists()
	out := make([]playlistView, 0, len(pls))
	for _, p := range pls {
		out = append(out, viewOf(p, false))
	}
	writeJSON(w, http.StatusOK, out)
}

type createPlaylistRequest struct {
	Name   string     `json:"name"`
	Tracks []model.ID `json:"tracks"`
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid body: %v", err)
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}

	opts := append([]playlist.Option{playlist.WithBus(s.deps.Cart.Bus())}, s.deps.Options...)
	p := playlist.New(req.Name, s.deps.Cart, opts...)

	s.mu.Lock()
	defer s.mu.Unlock()
	p.Add(req.Tracks...)
	s.deps.Cart.AddPlaylist(p)
	s.savePlaylist(r.Context(), p)
	writeJSON(w, http.StatusCreated, viewOf(p, true))
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	s.withPlaylist(w, r, func(p *playlist.Playlist) {
		writeJSON(w, http.StatusOK, viewOf(p, true))
	})
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	if err := s.deps.Cart.RemovePlaylist(id); err != nil {
		writeError(w, err)
		return
	}
	if s.deps.Playlists != nil {
		if err := s.deps.Playlists.DeletePlaylist(r.Context(), id); err != nil {
			logger.Warn("delete stored playlist", logger.Stringer("playlist", id), logger.ErrorField(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddPlaylistTracks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tracks []model.ID `json:"tracks"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid body: %v", err)
		return
	}
	s.withPlaylist(w, r, func(p *playlist.Playlist) {
		p.Add(req.Tracks...)
		s.savePlaylist(r.Context(), p)
		writeJSON(w, http.StatusOK, viewOf(p, true))
	})
}

func (s *Server) handleRemovePlaylistTrack(w http.ResponseWriter, r *http.Request) {
	track, err := pathID(r, "track")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	s.withPlaylist(w, r, func(p *playlist.Playlist) {
		if !p.Remove(track) {
			writeError(w, model.ErrNotFound)
			return
		}
		s.savePlaylist(r.Context(), p)
		writeJSON(w, http.StatusOK, viewOf(p, true))
	})
}

type stepResponse struct {
	Moved   bool      `json:"moved"`
	Current *model.ID `json:"current,omitempty"`
}

func (s *Server) handlePlaylistStep(forward bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.withPlaylist(w, r, func(p *playlist.Playlist) {
			var ok bool
			if forward {
				_, ok = p.Next()
			} else {
				_, ok = p.Previous()
			}
			resp := stepResponse{Moved: ok}
			if cur, has := p.Current(); has {
				resp.Current = &cur
			}
			if ok {
				s.savePlaylist(r.Context(), p)
			}
			writeJSON(w, http.StatusOK, resp)
		})
	}
}

func (s *Server) handleSortPlaylist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid body: %v", err)
		return
	}
	m, err := playlist.ParseSortModel(req.Model)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	s.withPlaylist(w, r, func(p *playlist.Playlist) {
		p.ApplyModel(m)
		s.savePlaylist(r.Context(), p)
		writeJSON(w, http.StatusOK, viewOf(p, true))
	})
}

func (s *Server) handlePlaylistMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Repeat  *bool `json:"repeat"`
		Shuffle *bool `json:"shuffle"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid body: %v", err)
		return
	}
	s.withPlaylist(w, r, func(p *playlist.Playlist) {
		if req.Repeat != nil {
			p.SetRepeat(*req.Repeat)
		}
		if req.Shuffle != nil && *req.Shuffle != p.Shuffled() {
			p.SetShuffle(*req.Shuffle)
		}
		s.savePlaylist(r.Context(), p)
		writeJSON(w, http.StatusOK, viewOf(p, false))
	})
}

// handlePlayPlaylist makes the playlist the one playback follows.
func (s *Server) handlePlayPlaylist(w http.ResponseWriter, r *http.Request) {
	if s.deps.Playback == nil {
		writeError(w, model.ErrUnavailable)
		return
	}
	s.withPlaylist(w, r, func(p *playlist.Playlist) {
		if _, ok := p.Current(); !ok {
			p.Next()
		}
		s.deps.Playback.SetPlaylist(p)
		writeJSON(w, http.StatusOK, viewOf(p, false))
	})
}
