package library

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"Atlas/model"
)

// Registry holds the configured libraries in the order they were added.
type Registry struct {
	mu   sync.RWMutex
	libs []*Library
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers l unless a library with the same id exists.
func (r *Registry) Add(l *Library) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.libs {
		if existing.ID == l.ID {
			return false
		}
	}
	r.libs = append(r.libs, l)
	return true
}

func (r *Registry) Remove(id model.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.libs)
	r.libs = slices.DeleteFunc(r.libs, func(l *Library) bool { return l.ID == id })
	return len(r.libs) != n
}

func (r *Registry) Get(id model.ID) (*Library, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.libs {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, fmt.Errorf("library %s: %w", id, model.ErrNotFound)
}

// List returns the libraries in insertion order.
func (r *Registry) List() []*Library {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.libs)
}

// Refresh re-resolves every root and returns the available libraries.
func (r *Registry) Refresh() []*Library {
	var out []*Library
	for _, l := range r.List() {
		if l.ResolveRoot() == nil {
			out = append(out, l)
		}
	}
	return out
}

// ResolveTrackPath returns an absolute path for t, trying its library paths
// in insertion order and skipping libraries that are gone or unmounted.
func (r *Registry) ResolveTrackPath(t model.Track) (string, error) {
	for _, p := range t.Paths {
		l, err := r.Get(p.LibraryID)
		if err != nil {
			continue
		}
		if err := l.ResolveRoot(); err != nil {
			continue
		}
		if abs, err := l.AbsolutePathOf(p.RelativePath); err == nil {
			return abs, nil
		}
	}
	return "", fmt.Errorf("track %s: no available library: %w", t.ID, model.ErrUnavailable)
}

// Locate finds the first available library containing abs and returns the
// path relative to it.
func (r *Registry) Locate(abs string) (*Library, string, error) {
	for _, l := range r.List() {
		rel, err := l.RelativePathOf(abs)
		if err == nil {
			return l, rel, nil
		}
		if !errors.Is(err, ErrOutsideLibrary) && !errors.Is(err, model.ErrUnavailable) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("%s: %w", abs, ErrOutsideLibrary)
}
