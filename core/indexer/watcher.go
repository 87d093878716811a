package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"Atlas/core/library"
	"Atlas/core/metadata"
	"Atlas/logger"
	"Atlas/model"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay quiet before it is re-indexed.
const DefaultSettle = 750 * time.Millisecond

// Watcher keeps libraries in sync with their directories. It watches the
// root, artist and album directories of each library: created or written
// audio files are indexed once they settle, removed or renamed ones lose
// their library path.
type Watcher struct {
	ix     *Indexer
	fw     *fsnotify.Watcher
	settle time.Duration

	mu      sync.Mutex
	libs    []*library.Library
	pending map[string]time.Time
}

// NewWatcher creates a watcher feeding ix.
func NewWatcher(ix *Indexer, settle time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{ix: ix, fw: fw, settle: settle, pending: make(map[string]time.Time)}, nil
}

// Watch adds lib's directory tree down to album level.
func (w *Watcher) Watch(lib *library.Library) error {
	if err := lib.ResolveRoot(); err != nil {
		return err
	}
	root, _ := lib.Root()
	w.mu.Lock()
	w.libs = append(w.libs, lib)
	w.mu.Unlock()
	return w.addTree(root, levelRoot)
}

func (w *Watcher) addTree(dir string, level int) error {
	if err := w.fw.Add(dir); err != nil {
		return err
	}
	if level == levelAlbum {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("watch: unreadable directory", logger.String("path", dir), logger.ErrorField(err))
		return nil
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			if err := w.addTree(filepath.Join(dir, e.Name()), level+1); err != nil {
				logger.Warn("watch directory", logger.String("path", e.Name()), logger.ErrorField(err))
			}
		}
	}
	return nil
}

// locate returns the watched library containing path and the relative path.
func (w *Watcher) locate(path string) (*library.Library, string, bool) {
	w.mu.Lock()
	libs := append([]*library.Library(nil), w.libs...)
	w.mu.Unlock()
	for _, lib := range libs {
		if rel, err := lib.RelativePathOf(path); err == nil {
			return lib, rel, true
		}
	}
	return nil, "", false
}

// Run processes filesystem events until ctx is done, then closes the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()
	tick := time.NewTicker(w.settle / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", logger.ErrorField(err))
		case now := <-tick.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	lib, rel, ok := w.locate(ev.Name)
	if !ok {
		return
	}
	depth := strings.Count(rel, "/")

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if ev.Has(fsnotify.Create) && depth < levelAlbum && !strings.HasPrefix(filepath.Base(ev.Name), ".") {
				_ = w.addTree(ev.Name, depth+1)
				w.queueDir(ev.Name, depth+1)
			}
			return
		}
		if metadata.IsAudio(ev.Name) {
			w.queue(ev.Name)
		}

	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.mu.Lock()
		delete(w.pending, ev.Name)
		w.mu.Unlock()

		if metadata.IsAudio(ev.Name) {
			if _, err := w.ix.RemovePath(ctx, lib, rel); err != nil && !errors.Is(err, model.ErrNotFound) {
				logger.Warn("watch: remove path", logger.String("path", rel), logger.ErrorField(err))
			}
			return
		}
		if n := w.ix.RemoveUnder(ctx, lib, rel); n > 0 {
			logger.Info("watch: directory removed", logger.String("path", rel), logger.Int("tracks", n))
		}
	}
}

// queueDir queues the audio files already present in a new directory; they
// may have landed before the watch was added.
func (w *Watcher) queueDir(dir string, level int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		switch {
		case e.IsDir() && level < levelAlbum:
			w.queueDir(p, level+1)
		case !e.IsDir() && metadata.IsAudio(e.Name()):
			w.queue(p)
		}
	}
}

func (w *Watcher) queue(path string) {
	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// flush indexes the files that have been quiet for the settle period.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()
	var ready []string
	for p, t := range w.pending {
		if now.Sub(t) >= w.settle {
			ready = append(ready, p)
			delete(w.pending, p)
		}
	}
	w.mu.Unlock()

	for _, p := range ready {
		lib, _, ok := w.locate(p)
		if !ok {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue // gone before it settled
		}
		created, err := w.ix.IndexFile(ctx, lib, p)
		if err != nil {
			logger.Warn("watch: index file", logger.String("path", p), logger.ErrorField(err))
			continue
		}
		logger.Debug("watch: indexed", logger.String("path", p), logger.Bool("created", created))
	}
}
