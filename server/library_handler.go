package server

import (
	"context"
	"errors"
	"net/http"

	"Atlas/core/indexer"
	"Atlas/core/library"
	"Atlas/logger"
	"Atlas/model"
)

type libraryView struct {
	library.Descriptor
	Root      string `json:"root,omitempty"`
	Available bool   `json:"available"`
	Indexing  bool   `json:"indexing"`
}

func (s *Server) libraryView(l *library.Library) libraryView {
	root, ok := l.Root()
	return libraryView{
		Descriptor: l.Descriptor(),
		Root:       root,
		Available:  ok,
		Indexing:   s.deps.Indexer != nil && s.deps.Indexer.Running(l.ID),
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entities":      s.deps.Cart.Counts(),
		"libraries":     len(s.deps.Libraries.List()),
		"eventClients":  s.hub.ClientCount(),
		"droppedEvents": s.deps.Cart.Bus().Dropped(),
	})
}

func (s *Server) handleListLibraries(w http.ResponseWriter, r *http.Request) {
	// 刷新挂载状态
	s.deps.Libraries.Refresh()
	all := s.deps.Libraries.List()
	out := make([]libraryView, 0, len(all))
	for _, l := range all {
		out = append(out, s.libraryView(l))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleIndexLibrary starts a pass in the background and answers 202, or
// waits for the stats with ?wait=true.
func (s *Server) handleIndexLibrary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	lib, err := s.deps.Libraries.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.deps.Indexer == nil {
		writeError(w, errors.New("indexing is disabled"))
		return
	}
	if s.deps.Indexer.Running(lib.ID) {
		writeError(w, indexer.ErrBusy)
		return
	}
	if err := lib.ResolveRoot(); err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		stats, err := s.deps.Indexer.Index(r.Context(), lib)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
		return
	}

	s.wg.Add(1)
	go func(ctx context.Context, lib *library.Library) {
		defer s.wg.Done()
		if _, err := s.deps.Indexer.Index(ctx, lib); err != nil && !errors.Is(err, indexer.ErrBusy) {
			logger.Warn("background index failed", logger.Stringer("library", lib.ID), logger.ErrorField(err))
		}
	}(s.baseCtx, lib)
	writeJSON(w, http.StatusAccepted, map[string]model.ID{"library": lib.ID})
}
