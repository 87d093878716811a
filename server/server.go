// Package server exposes the library graph over HTTP for inspection and
// remote control, and streams graph events over a websocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"Atlas/core/cartographer"
	"Atlas/core/indexer"
	"Atlas/core/library"
	"Atlas/core/playback"
	"Atlas/core/playlist"
	"Atlas/logger"
	"Atlas/model"

	"github.com/gorilla/mux"
)

// PlaylistStore persists user playlists.
type PlaylistStore interface {
	SavePlaylist(ctx context.Context, s playlist.Snapshot) error
	DeletePlaylist(ctx context.Context, id model.ID) error
}

// LibraryIndexer runs indexing passes.
type LibraryIndexer interface {
	Index(ctx context.Context, lib *library.Library) (indexer.Stats, error)
	Running(lib model.ID) bool
}

// Deps 服务依赖
type Deps struct {
	Cart      *cartographer.Cartographer
	Libraries *library.Registry
	Indexer   LibraryIndexer
	Playback  *playback.Controller
	Playlists PlaylistStore     // may be nil
	Options   []playlist.Option // applied to playlists created over HTTP
}

// Server HTTP 服务
type Server struct {
	deps Deps
	hub  *EventHub

	// playlists are single-writer; every handler touching one holds mu
	mu sync.Mutex

	// base context for work that outlives a request, e.g. background indexing
	baseCtx context.Context
	wg      sync.WaitGroup
}

func New(ctx context.Context, deps Deps) *Server {
	return &Server{
		deps:    deps,
		hub:     NewEventHub(deps.Cart.Bus()),
		baseCtx: ctx,
	}
}

// Router 构建路由
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	api.HandleFunc("/libraries", s.handleListLibraries).Methods(http.MethodGet)
	api.HandleFunc("/libraries/{id}/index", s.handleIndexLibrary).Methods(http.MethodPost)

	api.HandleFunc("/artists", s.handleListArtists).Methods(http.MethodGet)
	api.HandleFunc("/artists/{id}", s.handleGetArtist).Methods(http.MethodGet)
	api.HandleFunc("/albums", s.handleListAlbums).Methods(http.MethodGet)
	api.HandleFunc("/albums/{id}", s.handleGetAlbum).Methods(http.MethodGet)
	api.HandleFunc("/tracks", s.handleListTracks).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{id}", s.handleGetTrack).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{id}/path", s.handleTrackPath).Methods(http.MethodGet)

	api.HandleFunc("/playlists", s.handleListPlaylists).Methods(http.MethodGet)
	api.HandleFunc("/playlists", s.handleCreatePlaylist).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}", s.handleGetPlaylist).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{id}", s.handleDeletePlaylist).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/{id}/tracks", s.handleAddPlaylistTracks).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/tracks/{track}", s.handleRemovePlaylistTrack).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/{id}/next", s.handlePlaylistStep(true)).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/previous", s.handlePlaylistStep(false)).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/sort", s.handleSortPlaylist).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/mode", s.handlePlaylistMode).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/play", s.handlePlayPlaylist).Methods(http.MethodPost)

	api.HandleFunc("/playback", s.handleNowPlaying).Methods(http.MethodGet)
	api.HandleFunc("/playback/play", s.handlePlayNow).Methods(http.MethodPost)
	api.HandleFunc("/playback/state", s.handlePlaybackState).Methods(http.MethodPost)
	api.HandleFunc("/playback/next", s.handlePlaybackStep(true)).Methods(http.MethodPost)
	api.HandleFunc("/playback/previous", s.handlePlaybackStep(false)).Methods(http.MethodPost)

	router.HandleFunc("/ws/events", s.hub.ServeWS)

	// 预检请求由 CORS 中间件应答
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	return router
}

// Run serves addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.wg.Wait()
	logger.Info("http server stopped")
	return err
}

// Hub 返回事件流 Hub
func (s *Server) Hub() *EventHub { return s.hub }

// Wait blocks until background work started by handlers has finished.
func (s *Server) Wait() { s.wg.Wait() }
