// Package indexer walks a library and merges what it finds into the
// cartographer. Directory depth decides the role of a directory: directly
// under the root is an artist, one level further an album. Deeper
// directories are not a supported layout and are skipped.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"Atlas/core/cartographer"
	"Atlas/core/events"
	"Atlas/core/library"
	"Atlas/core/metadata"
	"Atlas/logger"
	"Atlas/model"
)

// ErrBusy is returned when a library is already being indexed.
var ErrBusy = errors.New("library is already being indexed")

var errMountLost = errors.New("library root went away")

// Sink receives every committed entity. Implementations persist them; a
// failing Sink never rolls back the in-memory graph.
type Sink interface {
	SaveArtist(ctx context.Context, a model.Artist) error
	SaveAlbum(ctx context.Context, a model.Album) error
	SaveTrack(ctx context.Context, t model.Track) error
	DeleteArtist(ctx context.Context, id model.ID) error
	DeleteAlbum(ctx context.Context, id model.ID) error
	DeleteTrack(ctx context.Context, id model.ID) error
}

// ArtworkStore keeps embedded cover images and returns where it put them.
type ArtworkStore interface {
	Put(ctx context.Context, key string, data []byte, mime string) (string, error)
}

// Config 索引器依赖
type Config struct {
	Extractor metadata.Extractor
	Sink      Sink         // nil: nothing is persisted
	Artwork   ArtworkStore // nil: embedded pictures are ignored
	Workers   int          // extraction workers, default NumCPU
}

// Stats summarises one indexing pass.
type Stats struct {
	Library            model.ID      `json:"library"`
	Directories        int           `json:"directories"`
	Files              int           `json:"files"`
	TracksCreated      int           `json:"tracksCreated"`
	TracksUpdated      int           `json:"tracksUpdated"`
	TracksRemoved      int           `json:"tracksRemoved"`
	ExtractionFailures int           `json:"extractionFailures"`
	UnreadableDirs     int           `json:"unreadableDirs"`
	SkippedDirs        int           `json:"skippedDirs"` // nested deeper than album level
	PersistErrors      int           `json:"persistErrors"`
	Cancelled          bool          `json:"cancelled"`
	Elapsed            time.Duration `json:"elapsed"`
}

// Indexer 库索引器
type Indexer struct {
	cart      *cartographer.Cartographer
	extractor metadata.Extractor
	sink      Sink
	artwork   ArtworkStore
	workers   int

	// mergeMu serialises every mutation of the graph, across libraries.
	mergeMu sync.Mutex

	runMu   sync.Mutex
	running map[model.ID]struct{}
}

// New creates an Indexer over cart.
func New(cart *cartographer.Cartographer, cfg Config) *Indexer {
	if cfg.Extractor == nil {
		cfg.Extractor = metadata.NewTagExtractor()
	}
	if cfg.Sink == nil {
		cfg.Sink = NopSink{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Indexer{
		cart:      cart,
		extractor: cfg.Extractor,
		sink:      cfg.Sink,
		artwork:   cfg.Artwork,
		workers:   cfg.Workers,
		running:   make(map[model.ID]struct{}),
	}
}

// Running reports whether lib is being indexed.
func (ix *Indexer) Running(lib model.ID) bool {
	ix.runMu.Lock()
	defer ix.runMu.Unlock()
	_, ok := ix.running[lib]
	return ok
}

func (ix *Indexer) acquire(lib model.ID) bool {
	ix.runMu.Lock()
	defer ix.runMu.Unlock()
	if _, busy := ix.running[lib]; busy {
		return false
	}
	ix.running[lib] = struct{}{}
	return true
}

func (ix *Indexer) release(lib model.ID) {
	ix.runMu.Lock()
	delete(ix.running, lib)
	ix.runMu.Unlock()
}

type result struct {
	job fileJob
	rec metadata.TagRecord
	err error
}

// Index walks lib once. Extraction runs on a worker pool; merging into the
// graph is serial. Cancelling ctx, or losing the library's mount, stops the
// pass between files and leaves a valid partial graph; Stats.Cancelled is
// then set and no error is returned. An unavailable library fails with
// model.ErrUnavailable before anything is touched.
func (ix *Indexer) Index(ctx context.Context, lib *library.Library) (Stats, error) {
	stats := Stats{Library: lib.ID}
	if err := lib.ResolveRoot(); err != nil {
		logger.Warn("library unavailable, not indexing",
			logger.String("library", lib.Name), logger.ErrorField(err))
		return stats, err
	}
	if !ix.acquire(lib.ID) {
		return stats, fmt.Errorf("library %s: %w", lib.Name, ErrBusy)
	}
	defer ix.release(lib.ID)

	start := time.Now()
	bus := ix.cart.Bus()
	bus.Emit(events.IndexStarted, model.NilID, lib.ID)
	logger.Info("indexing library",
		logger.String("library", lib.Name), logger.Stringer("id", lib.ID))

	passCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	root, _ := lib.Root()
	w := &walker{lib: lib, root: root, jobs: make(chan fileJob, 100), done: make(chan struct{}), cancel: cancel}
	go w.run(passCtx)

	results := make(chan result, ix.workers)
	var wg sync.WaitGroup
	for i := 0; i < ix.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range w.jobs {
				rec, err := ix.extractor.Extract(job.abs, lib.Type)
				select {
				case results <- result{job: job, rec: rec, err: err}:
				case <-passCtx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make(map[string]struct{})
	for r := range results {
		if passCtx.Err() != nil {
			continue // drain so every goroutine has exited before returning
		}
		seen[r.job.rel] = struct{}{}
		ix.mergeResult(passCtx, lib, r, &stats)
	}
	// workers may quit early on cancel, the walker stops at its next check
	<-w.done

	stats.Directories = w.dirs
	stats.Files = w.files
	stats.UnreadableDirs = w.unreadable
	stats.SkippedDirs = w.nested

	if cause := context.Cause(passCtx); passCtx.Err() != nil {
		stats.Cancelled = true
		if errors.Is(cause, errMountLost) {
			logger.Warn("library went away while indexing",
				logger.String("library", lib.Name))
		}
	} else if stats.UnreadableDirs == 0 {
		stats.TracksRemoved = ix.prune(ctx, lib, seen, &stats)
	}

	stats.Elapsed = time.Since(start)
	if stats.Cancelled {
		bus.Emit(events.IndexCancelled, model.NilID, lib.ID)
	} else {
		bus.Emit(events.IndexFinished, model.NilID, lib.ID)
	}
	logger.Info("indexing finished",
		logger.String("library", lib.Name),
		logger.Int("files", stats.Files),
		logger.Int("created", stats.TracksCreated),
		logger.Int("updated", stats.TracksUpdated),
		logger.Int("removed", stats.TracksRemoved),
		logger.Int("extractionFailures", stats.ExtractionFailures),
		logger.Bool("cancelled", stats.Cancelled),
		logger.Duration("elapsed", stats.Elapsed))
	return stats, nil
}

// IndexAll indexes each library in turn, skipping unavailable ones. It stops
// early when ctx is cancelled.
func (ix *Indexer) IndexAll(ctx context.Context, libs []*library.Library) []Stats {
	var all []Stats
	for _, lib := range libs {
		if ctx.Err() != nil {
			break
		}
		st, err := ix.Index(ctx, lib)
		if err != nil {
			continue
		}
		all = append(all, st)
	}
	return all
}

// prune drops this library's path from tracks the completed pass did not
// see.
func (ix *Indexer) prune(ctx context.Context, lib *library.Library, seen map[string]struct{}, stats *Stats) int {
	removed := 0
	for _, t := range ix.cart.TracksUnder(lib.ID, "") {
		rel, ok := t.PathFor(lib.ID)
		if !ok {
			continue
		}
		if _, found := seen[rel]; found {
			continue
		}
		gone, err := ix.RemovePath(ctx, lib, rel)
		if err != nil {
			stats.PersistErrors++
		}
		if gone {
			removed++
		}
	}
	return removed
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) SaveArtist(context.Context, model.Artist) error { return nil }
func (NopSink) SaveAlbum(context.Context, model.Album) error   { return nil }
func (NopSink) SaveTrack(context.Context, model.Track) error   { return nil }
func (NopSink) DeleteArtist(context.Context, model.ID) error   { return nil }
func (NopSink) DeleteAlbum(context.Context, model.ID) error    { return nil }
func (NopSink) DeleteTrack(context.Context, model.ID) error    { return nil }
