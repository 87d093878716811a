package model

import (
	"slices"

	"github.com/google/uuid"
)

// ID is the stable identifier shared by every entity kind.
type ID = uuid.UUID

// NilID marks an absent relation, e.g. a track without an album.
var NilID = uuid.Nil

// NewID mints a fresh random identifier.
func NewID() ID {
	return uuid.New()
}

// ParseID parses the canonical textual form of an identifier.
func ParseID(s string) (ID, error) {
	return uuid.Parse(s)
}

// appendUniqueID appends id unless it is already present.
func appendUniqueID(ids []ID, id ID) []ID {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

// removeID drops every occurrence of id, preserving order.
func removeID(ids []ID, id ID) []ID {
	return slices.DeleteFunc(ids, func(v ID) bool { return v == id })
}
