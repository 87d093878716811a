// Package library maps logical libraries onto physical roots. A library is
// either built in, anchored at a fixed per-type user directory, or bound to a
// removable volume identified by its filesystem UUID. Only the relative path
// is persisted; the absolute root is always derived from the live mount.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"Atlas/model"
)

// ErrOutsideLibrary is returned when an absolute path is not under a
// library's root.
var ErrOutsideLibrary = errors.New("path outside library root")

// Descriptor is the persisted shape of a library.
type Descriptor struct {
	ID           model.ID          `json:"id"`
	Type         model.LibraryType `json:"type"`
	StorageUUID  string            `json:"storageUuid,omitempty"` // empty for built-in libraries
	RelativePath string            `json:"relativePath"`
	Name         string            `json:"name"`
}

// Env carries what root resolution depends on.
type Env struct {
	Anchors map[model.LibraryType]string
	Volumes VolumeResolver
}

// Library is one configured library.
type Library struct {
	ID           model.ID
	Type         model.LibraryType
	StorageUUID  string
	RelativePath string
	Name         string
	// IndexOnCreate is true for libraries the user just added and false for
	// rehydrated ones, which are assumed to be indexed already.
	IndexOnCreate bool

	env Env

	mu        sync.RWMutex
	root      string
	available bool
}

// New creates a library for a user-chosen absolute root. For a volume
// library the volume must be mounted so the root can be made relative to
// its mount point. A built-in library under its type's anchor stores a
// path relative to the anchor; one elsewhere stores the absolute path.
func New(typ model.LibraryType, storageUUID, root, name string, env Env) (*Library, error) {
	root = filepath.Clean(root)
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("library root %q is not absolute", root)
	}

	base, err := env.base(typ, storageUUID)
	if err != nil {
		return nil, err
	}

	rel := root
	if r, err := filepath.Rel(base, root); err == nil && !escapes(r) {
		rel = r
	} else if storageUUID != "" {
		return nil, fmt.Errorf("%s is not on volume %s mounted at %s: %w", root, storageUUID, base, ErrOutsideLibrary)
	}

	if name == "" {
		name = filepath.Base(root)
	}
	l := &Library{
		ID:            model.NewID(),
		Type:          typ,
		StorageUUID:   storageUUID,
		RelativePath:  rel,
		Name:          name,
		IndexOnCreate: true,
		env:           env,
	}
	l.ResolveRoot()
	return l, nil
}

// FromDescriptor rehydrates a persisted library, keeping its id.
func FromDescriptor(d Descriptor, env Env) *Library {
	l := &Library{
		ID:           d.ID,
		Type:         d.Type,
		StorageUUID:  d.StorageUUID,
		RelativePath: d.RelativePath,
		Name:         d.Name,
		env:          env,
	}
	l.ResolveRoot()
	return l
}

// Descriptor returns the persisted shape.
func (l *Library) Descriptor() Descriptor {
	return Descriptor{
		ID:           l.ID,
		Type:         l.Type,
		StorageUUID:  l.StorageUUID,
		RelativePath: l.RelativePath,
		Name:         l.Name,
	}
}

// IsVolume reports whether the library lives on a removable volume.
func (l *Library) IsVolume() bool { return l.StorageUUID != "" }

// ResolveRoot recomputes the absolute root from the anchor or the volume's
// current mount point. It returns ErrUnavailable, and marks the library
// unavailable, when the volume is not mounted or the root is not a
// readable directory. Repeated calls across mount cycles are safe.
func (l *Library) ResolveRoot() error {
	root, err := l.computeRoot()
	if err == nil {
		var info os.FileInfo
		info, err = os.Stat(root)
		if err == nil && !info.IsDir() {
			err = fmt.Errorf("%s is not a directory", root)
		}
		if err != nil {
			err = fmt.Errorf("library %s: %v: %w", l.Name, err, model.ErrUnavailable)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.available = false
		return err
	}
	l.root = root
	l.available = true
	return nil
}

func (l *Library) computeRoot() (string, error) {
	if filepath.IsAbs(l.RelativePath) && !l.IsVolume() {
		return filepath.Clean(l.RelativePath), nil
	}
	base, err := l.env.base(l.Type, l.StorageUUID)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, l.RelativePath), nil
}

// Root returns the last resolved root and whether the library is available.
func (l *Library) Root() (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.root, l.available
}

// Available reports the availability seen by the last ResolveRoot.
func (l *Library) Available() bool {
	_, ok := l.Root()
	return ok
}

// RelativePathOf strips the library root from an absolute path.
func (l *Library) RelativePathOf(abs string) (string, error) {
	root, ok := l.Root()
	if !ok {
		return "", fmt.Errorf("library %s: %w", l.Name, model.ErrUnavailable)
	}
	rel, err := filepath.Rel(root, filepath.Clean(abs))
	if err != nil || escapes(rel) || rel == "." {
		return "", fmt.Errorf("%s: %w", abs, ErrOutsideLibrary)
	}
	return filepath.ToSlash(rel), nil
}

// AbsolutePathOf joins the library root and a relative path.
func (l *Library) AbsolutePathOf(rel string) (string, error) {
	root, ok := l.Root()
	if !ok {
		return "", fmt.Errorf("library %s: %w", l.Name, model.ErrUnavailable)
	}
	return filepath.Join(root, filepath.FromSlash(rel)), nil
}

func (e Env) base(typ model.LibraryType, storageUUID string) (string, error) {
	if storageUUID == "" {
		anchor, ok := e.Anchors[typ]
		if !ok || anchor == "" {
			return "", fmt.Errorf("no anchor directory configured for %s libraries", typ)
		}
		return filepath.Clean(anchor), nil
	}
	if e.Volumes == nil {
		return "", fmt.Errorf("volume %s: no resolver: %w", storageUUID, model.ErrUnavailable)
	}
	return e.Volumes.MountPoint(storageUUID)
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
