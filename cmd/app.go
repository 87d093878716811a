package cmd

import (
	"context"
	"fmt"

	"Atlas/cache"
	"Atlas/config"
	"Atlas/core/cartographer"
	"Atlas/core/events"
	"Atlas/core/indexer"
	"Atlas/core/library"
	"Atlas/core/playlist"
	"Atlas/db"
	"Atlas/logger"
	"Atlas/model"
	"Atlas/repository"
	"Atlas/storage"

	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// app is one process's wiring: the store, the restored graph and the
// services built on it.
type app struct {
	cfg      *config.Config
	gdb      *gorm.DB
	store    *repository.GormStore
	bus      *events.Bus
	cart     *cartographer.Cartographer
	libs     *library.Registry
	env      library.Env
	ix       *indexer.Indexer
	rdb      *redis.Client
	sessions *cache.SessionCache // nil unless REDIS_ENABLED
	plOpts   []playlist.Option
}

func libraryEnv(cfg *config.Config) library.Env {
	return library.Env{
		Anchors: map[model.LibraryType]string{
			model.LibraryMusic:     cfg.MusicDir,
			model.LibraryAudiobook: cfg.AudiobooksDir,
			model.LibraryPodcast:   cfg.PodcastsDir,
		},
		Volumes: library.LinuxVolumes{},
	}
}

// openApp connects the store and restores the graph. Artwork storage and
// the session cache are only set up for commands that index or play.
func openApp(ctx context.Context, cfg *config.Config, full bool) (*app, error) {
	gdb, err := db.Open(cfg, repository.Models()...)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		gdb:   gdb,
		store: repository.NewGormStore(gdb),
		bus:   events.NewBus(),
		libs:  library.NewRegistry(),
		env:   libraryEnv(cfg),
	}
	a.cart = cartographer.New(a.bus)

	tag, err := language.Parse(cfg.SortLocale)
	if err != nil {
		logger.Warn("invalid SORT_LOCALE, using en", logger.String("locale", cfg.SortLocale), logger.ErrorField(err))
		tag = language.English
	}
	a.plOpts = []playlist.Option{playlist.WithLocale(tag)}

	if _, err := repository.Hydrate(ctx, a.store, a.cart, a.libs, a.env, a.plOpts...); err != nil {
		a.close()
		return nil, fmt.Errorf("restore graph: %w", err)
	}

	ixCfg := indexer.Config{Sink: a.store, Workers: cfg.IndexWorkers}
	if full {
		art, err := storage.New(ctx, cfg)
		if err != nil {
			logger.Warn("artwork storage unavailable, embedded pictures are skipped", logger.ErrorField(err))
		} else {
			ixCfg.Artwork = art
		}

		if cfg.RedisEnabled {
			rdb, err := db.ConnectRedis(ctx, cfg)
			if err != nil {
				logger.Warn("session cache unavailable", logger.ErrorField(err))
			} else {
				a.rdb = rdb
				a.sessions = cache.NewSessionCache(rdb, cache.DefaultSessionTTL)
			}
		}
	}
	a.ix = indexer.New(a.cart, ixCfg)
	return a, nil
}

func (a *app) close() {
	if a.rdb != nil {
		a.rdb.Close()
	}
	a.bus.Close()
	if err := db.Close(a.gdb); err != nil {
		logger.Warn("close database", logger.ErrorField(err))
	}
}

// selectLibraries returns the libraries named by ids, or all of them.
func (a *app) selectLibraries(ids []string) ([]*library.Library, error) {
	if len(ids) == 0 {
		return a.libs.List(), nil
	}
	out := make([]*library.Library, 0, len(ids))
	for _, raw := range ids {
		id, err := model.ParseID(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid library id %q", raw)
		}
		l, err := a.libs.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
