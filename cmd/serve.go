package cmd

import (
	"errors"
	"os/signal"
	"syscall"

	"Atlas/core/playback"
	"Atlas/core/playlist"
	"Atlas/logger"
	"Atlas/model"
	"Atlas/server"

	"github.com/spf13/cobra"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "启动 HTTP 服务",
	Long:    `Serves the library graph over HTTP and streams graph events on /ws/events. With --watch the libraries are indexed and watched while serving.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.close()

		var sessions playback.SessionStore
		if a.sessions != nil {
			sessions = a.sessions
		}
		ctrl := playback.NewController(a.cart, a.libs, a.store, sessions)

		// 恢复上次的临时播放列表
		if a.sessions != nil {
			snap, err := a.sessions.Latest(ctx)
			switch {
			case err == nil:
				opts := append([]playlist.Option{playlist.WithBus(a.bus)}, a.plOpts...)
				ctrl.SetPlaylist(playlist.Restore(snap, a.cart, opts...))
				logger.Info("resumed playback session", logger.Stringer("playlist", snap.ID), logger.Int("tracks", len(snap.Queue)))
			case !errors.Is(err, model.ErrNotFound):
				logger.Warn("resume playback session", logger.ErrorField(err))
			}
		}

		srv := server.New(ctx, server.Deps{
			Cart:      a.cart,
			Libraries: a.libs,
			Indexer:   a.ix,
			Playback:  ctrl,
			Playlists: a.store,
			Options:   a.plOpts,
		})

		if serveWatch {
			w, err := startWatcher(ctx, a)
			if err != nil {
				return err
			}
			go func() {
				if err := w.Run(ctx); err != nil {
					logger.Error("watcher stopped", logger.ErrorField(err))
				}
			}()
		}

		return srv.Run(ctx, cfg.HTTPAddr)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "index and watch libraries while serving")
	rootCmd.AddCommand(serveCmd)
}
