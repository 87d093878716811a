package indexer

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"Atlas/core/library"
	"Atlas/core/metadata"
	"Atlas/logger"
	"Atlas/model"
)

const (
	levelRoot = iota
	levelArtist
	levelAlbum
)

// fileJob is one audio file with the placement derived from its directory.
type fileJob struct {
	abs       string
	rel       string // slash separated, relative to the library root
	artistDir string // empty for files directly under the root
	albumDir  string // empty for files directly under an artist
	cover     string // best image in the album directory, absolute
}

// placement splits a relative file path into artist and album directories.
// ok is false for files nested deeper than the album level.
func placement(rel string) (artistDir, albumDir string, ok bool) {
	parts := strings.Split(rel, "/")
	switch len(parts) {
	case 1:
		return "", "", true
	case 2:
		return parts[0], "", true
	case 3:
		return parts[0], parts[1], true
	}
	return "", "", false
}

// walker produces file jobs for one library. Its counters are only read
// after done is closed.
type walker struct {
	lib    *library.Library
	root   string
	jobs   chan fileJob
	done   chan struct{}
	cancel context.CancelCauseFunc

	dirs, files, unreadable, nested int
}

func (w *walker) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.jobs)
	w.dir(ctx, "", levelRoot)
}

// dir walks one directory and reports whether the walk should go on.
func (w *walker) dir(ctx context.Context, rel string, level int) bool {
	if ctx.Err() != nil {
		return false
	}
	if err := w.lib.ResolveRoot(); err != nil {
		w.cancel(fmt.Errorf("%w: %v", errMountLost, err))
		return false
	}

	abs := filepath.Join(w.root, filepath.FromSlash(rel))
	entries, err := os.ReadDir(abs)
	if err != nil {
		w.unreadable++
		logger.Warn("skipping unreadable directory",
			logger.String("path", abs),
			logger.ErrorField(fmt.Errorf("%v: %w", err, model.ErrDirectoryUnreadable)))
		return true
	}
	w.dirs++

	var (
		audio   []string
		subdirs []string
		cover   string
	)
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() {
			subdirs = append(subdirs, name)
			continue
		}
		switch metadata.Classify(name) {
		case metadata.KindAudio:
			audio = append(audio, name)
		case metadata.KindImage:
			if level == levelAlbum && (cover == "" || metadata.CoverRank(name) < metadata.CoverRank(cover)) {
				cover = name
			}
		}
	}

	for _, name := range audio {
		fileRel := path.Join(rel, name)
		artistDir, albumDir, _ := placement(fileRel)
		job := fileJob{
			abs:       filepath.Join(abs, name),
			rel:       fileRel,
			artistDir: artistDir,
			albumDir:  albumDir,
		}
		if cover != "" {
			job.cover = filepath.Join(abs, cover)
		}
		select {
		case w.jobs <- job:
			w.files++
		case <-ctx.Done():
			return false
		}
	}

	for _, name := range subdirs {
		if level == levelAlbum {
			w.nested++
			logger.Debug("skipping nested directory", logger.String("path", filepath.Join(abs, name)))
			continue
		}
		if !w.dir(ctx, path.Join(rel, name), level+1) {
			return false
		}
	}
	return true
}

// findCover picks the best image in an album directory for single-file
// indexing.
func findCover(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	best := ""
	for _, e := range entries {
		if e.IsDir() || metadata.Classify(e.Name()) != metadata.KindImage {
			continue
		}
		if best == "" || metadata.CoverRank(e.Name()) < metadata.CoverRank(best) {
			best = e.Name()
		}
	}
	if best == "" {
		return ""
	}
	return filepath.Join(dir, best)
}
