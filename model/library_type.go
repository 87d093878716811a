package model

import (
	"fmt"
	"strings"
)

// LibraryType tags libraries and the artists discovered under them.
type LibraryType string

const (
	LibraryMusic     LibraryType = "music"
	LibraryAudiobook LibraryType = "audiobook"
	LibraryPodcast   LibraryType = "podcast"
)

// ParseLibraryType accepts the persisted names plus a few plurals.
func ParseLibraryType(s string) (LibraryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "music":
		return LibraryMusic, nil
	case "audiobook", "audiobooks":
		return LibraryAudiobook, nil
	case "podcast", "podcasts":
		return LibraryPodcast, nil
	}
	return "", fmt.Errorf("unknown library type %q", s)
}
