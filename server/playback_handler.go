package server

import (
	"net/http"
	"time"

	"Atlas/core/playback"
	"Atlas/model"
)

func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	if s.deps.Playback == nil {
		writeError(w, model.ErrUnavailable)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	np, err := s.deps.Playback.NowPlaying()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, np)
}

type playNowRequest struct {
	Name   string     `json:"name"`
	Album  *model.ID  `json:"album"`
	Tracks []model.ID `json:"tracks"`
}

// handlePlayNow builds an ephemeral playlist from an album or a track list.
func (s *Server) handlePlayNow(w http.ResponseWriter, r *http.Request) {
	if s.deps.Playback == nil {
		writeError(w, model.ErrUnavailable)
		return
	}
	var req playNowRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid body: %v", err)
		return
	}

	ids := req.Tracks
	name := req.Name
	if req.Album != nil {
		var err error
		if ids, err = s.albumTrackIDs(*req.Album); err != nil {
			writeError(w, err)
			return
		}
		if name == "" {
			al, _ := s.deps.Cart.GetAlbum(*req.Album)
			name = al.Name
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.deps.Playback.PlayNow(r.Context(), name, ids, s.deps.Options...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(p, true))
}

func (s *Server) handlePlaybackState(w http.ResponseWriter, r *http.Request) {
	if s.deps.Playback == nil {
		writeError(w, model.ErrUnavailable)
		return
	}
	var req struct {
		State      playback.State `json:"state"`
		PositionMs int64          `json:"positionMs"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid body: %v", err)
		return
	}
	switch req.State {
	case playback.Playing, playback.Paused, playback.Stopped, playback.Finished:
	default:
		badRequest(w, "unknown state %q", req.State)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ch := playback.StateChange{State: req.State, Position: time.Duration(req.PositionMs) * time.Millisecond}
	if err := s.deps.Playback.Notify(r.Context(), ch); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlaybackStep(forward bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Playback == nil {
			writeError(w, model.ErrUnavailable)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		step := s.deps.Playback.Next
		if !forward {
			step = s.deps.Playback.Previous
		}
		path, ok, err := step(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"moved": ok, "path": path})
	}
}
