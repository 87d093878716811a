package model

import "errors"

// Error kinds surfaced by the library core. None of them is fatal to the
// host process; callers match them with errors.Is.
var (
	// ErrNotFound is returned when an id lookup misses.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means a library's backing volume is not mounted.
	ErrUnavailable = errors.New("library unavailable")
	// ErrExtractionFailed means a single file's tags could not be read.
	ErrExtractionFailed = errors.New("metadata extraction failed")
	// ErrDirectoryUnreadable means a subtree could not be opened.
	ErrDirectoryUnreadable = errors.New("directory unreadable")
	// ErrInvalidRelation is a logic error: attaching to a missing or
	// mismatched parent.
	ErrInvalidRelation = errors.New("invalid relation")
)
